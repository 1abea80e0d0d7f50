// Package contracts holds the wire-level request/response types shared by
// the backend agent and the balancer's frontend. They are the Go analogue
// of the HelloRequest/HelloReply/Metric messages in the original protobuf
// service definition.
package contracts

// HelloRequest is the payload for the demonstration greeting RPC.
type HelloRequest struct {
	Name string `json:"name"`
}

// HelloReply carries the backend's greeting. Message MUST embed a server
// identifier matching the regex `server (\d+)` so load generators and
// tests can attribute a response to its origin.
type HelloReply struct {
	Message string `json:"message"`
}

// MetricsResponse is the payload returned by a backend's GetMetrics RPC.
type MetricsResponse struct {
	Rif          uint32 `json:"rif"`
	LatencyNanos uint64 `json:"latency_nanos"`
}
