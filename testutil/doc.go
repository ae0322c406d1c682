// Package testutil provides test doubles and helpers shared by the package tests.
//
// MockNATSClient is an in-memory stand-in for natsclient.Client. Publish
// delivers synchronously to every handler subscribed to the exact subject and
// records the message for later inspection:
//
//	client := testutil.NewMockNATSClient()
//	port := tickport.New(buf, client, tickport.Config{Prefix: "fifo"}, nil, nil)
//	_ = port.Start(ctx)
//	_ = client.Publish(ctx, "fifo.tick", []byte(`{"write":true,"data":17}`))
//	resp := testutil.WaitForMessage(t, client, "fifo.state", time.Second)
//
// MockKVStore is an in-memory bucket for report storage tests.
//
// StartNATS runs a real server in a container for integration tests; callers
// skip it under -short.
package testutil
