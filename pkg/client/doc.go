// Package client provides a Go SDK for the scheduler's HTTP control API.
//
// It is a thin net/http wrapper rather than a generated client: the
// control API surface is small enough that hand-written typed methods
// keep the SDK dependency-free beyond the WebSocket event stream.
//
// # Basic Usage
//
//	c, err := client.New("http://localhost:8080")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	task, err := c.SubmitTask(ctx, client.CreateTaskRequest{
//	    Factory: "sleeper",
//	    Payload: map[string]any{"seconds": 5},
//	})
//
// # WebSocket Events
//
//	err := c.ConnectWebSocket(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.CloseWebSocket()
//
//	for event := range c.Events() {
//	    fmt.Printf("Event: %s\n", event.Type)
//	}
//
// # Configuration
//
// The client supports functional options for configuration:
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithAPIKey("your-api-key"),
//	    client.WithTimeout(30 * time.Second),
//	)
package client
