// Package tickport exposes a buffer over NATS so an external testbench can
// clock it.
//
// Every JSON TickRequest received on <prefix>.tick is applied as exactly one
// tick and answered with a TickResponse on <prefix>.state:
//
//	$ nats pub tickfifo.tick '{"id":"1","write":true,"data":17}'
//	tickfifo.state {"id":"1","tick":1,"read_data":0,"full":false,"empty":false,"count":1,...}
//
// A payload that does not decode produces a response with Error set and does
// not tick the buffer.
//
// WebSocketHandler speaks the same protocol over a WebSocket, answering each
// frame on the connection that sent it. fifosim serve mounts it at
// WebSocketPath on the metrics server. Both paths share one tick counter.
package tickport
