// Package quizsolver provides the data model for turning a highlighted question
// into an AI-generated answer.
//
// A foreground agent captures a [Request], the coordinator routes it to a backend
// and returns an [AnswerResult] or a classified [*Error]. Backends are either one of
// the fixed providers ([ProviderGemini], [ProviderChatGPT]) or a custom endpoint
// whose wire shape is discovered by probing. Which one is used is decided by
// [Sniff]: a URL-like secret always means a custom endpoint.
//
// # Basic Usage
//
//	c := client.New(client.Config{})
//
//	req := quizsolver.Request{
//	    QuestionText: "What is 2+2?\nA. 4\nB. 5",
//	    Mode:         quizsolver.ModeQA,
//	}
//	cred := quizsolver.NewCredential(os.Getenv("QUIZSOLVER_API_KEY"), quizsolver.ProviderGemini)
//
//	result, err := c.Solve(ctx, req, cred, quizsolver.ProviderGemini)
//	if err != nil {
//	    fmt.Println(quizsolver.UserMessage(err))
//	    return
//	}
//	fmt.Println(result.Text)
//
// # Errors
//
// Every failure that leaves the pipeline is an [*Error] carrying an [ErrorKind]
// and a message fit for direct display. Use [KindOf] or [IsKind] to branch on the
// kind and [UserMessage] to render it.
//
// # Related Packages
//
//   - [github.com/spetersoncode/quizsolver/client]: the answer service
//   - [github.com/spetersoncode/quizsolver/bus]: coordinator/agent message bus
//   - [github.com/spetersoncode/quizsolver/coordinator]: privileged request handler
//   - [github.com/spetersoncode/quizsolver/foreground]: the embedded agent
//   - [github.com/spetersoncode/quizsolver/store]: credential storage
package quizsolver
