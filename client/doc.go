// Package client is the answer service: the single entry point that turns a
// request and a credential into an answer.
//
// The Client picks a backend per call:
//
//   - A credential that looks like a URL or hostname goes to the discovery
//     client, which probes the endpoint for a path and body shape it answers.
//   - Anything else is an API key for the selected fixed provider.
//
// # Basic Usage
//
//	c := client.New(client.Config{})
//
//	cred := quizsolver.NewCredential(key, quizsolver.ProviderChatGPT)
//	result, err := c.Solve(ctx, quizsolver.Request{QuestionText: text}, cred, quizsolver.ProviderChatGPT)
//	if err != nil {
//	    fmt.Println(quizsolver.UserMessage(err))
//	}
//
// # Retry Configuration
//
// Timeout and Network failures are retried with exponential backoff.
// Authentication, rate-limit and format failures are returned at once.
//
//	c := client.New(client.Config{
//	    RetryConfig: &client.RetryConfig{
//	        MaxAttempts:  5,
//	        InitialDelay: 500 * time.Millisecond,
//	    },
//	})
//
// # Events
//
// Observe solves via an event channel:
//
//	events := make(chan client.Event, 100)
//	c := client.New(client.Config{Events: events})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s took %v\n", e.Type, e.Provider, e.Duration)
//	    }
//	}()
package client
