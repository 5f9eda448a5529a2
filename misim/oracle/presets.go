package oracle

import ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"

// Precise is used for classification and rewriting calls.
func Precise() ports.Options {
	return ports.Options{Temperature: 0.2, TopP: 0.1, Format: ports.FormatText}
}

// JSON is Precise with a JSON object response.
func JSON() ports.Options {
	opts := Precise()
	opts.Format = ports.FormatJSON
	return opts
}

// Chat is used for in-character utterances.
func Chat(maxTokens int) ports.Options {
	return ports.Options{Temperature: 0.7, TopP: 0.8, MaxNewTokens: maxTokens, Format: ports.FormatText}
}

// User builds a single-message prompt.
func User(system, content string) ports.PromptInput {
	return ports.PromptInput{
		System:   system,
		Messages: []ports.Message{{Role: ports.RoleUser, Content: content}},
	}
}
