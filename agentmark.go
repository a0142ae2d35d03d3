// Package agentmark compiles markdown/JSX prompt templates into typed
// configuration objects for LLM backends.
//
// A template is a document with YAML front matter and a body of text,
// {expressions} and capitalized tags:
//
//	---
//	name: math-tutor
//	text_config:
//	  model_name: gpt-4o
//	---
//	<System>You are a helpful math tutor.</System>
//	<User>{props.userMessage}</User>
//
// # Basic Usage
//
// Parse a template and compile it with props:
//
//	doc, err := agentmark.ParseDocument(source)
//	engine := agentmark.MustNew()
//	cfg, err := engine.Compile(ctx, doc, map[string]any{"userMessage": "What is 5 + 3?"})
//	// cfg.Text.Messages[1].Content.Text == "What is 5 + 3?"
//
// # Role Tags
//
// System, User and Assistant become chat messages in document order. System
// may only be the first message. ImagePrompt and SpeechPrompt carry the
// primary text of image and speech prompts; a System tag in a speech prompt
// becomes its instructions.
//
// ImageAttachment and FileAttachment add media parts to the enclosing User
// message:
//
//	<User>
//	  Describe this picture.
//	  <ImageAttachment image={props.url} mimeType="image/png" />
//	</User>
//
// # Control Tags
//
// If, ElseIf, Else, ForEach and Raw are built in:
//
//	<If condition={props.items.length > 0}>
//	  <ForEach arr={props.items}>
//	    {(item, index) => (
//	      <ImageAttachment image={item.url} />
//	    )}
//	  </ForEach>
//	</If>
//
// # Prompts, Loaders and Adapters
//
// A Client loads templates through a Loader and binds them to an Adapter:
//
//	loader, err := agentmark.NewFileLoader("./prompts")
//	client, err := agentmark.NewClient(agentmark.WithLoader(loader))
//	prompt, err := client.LoadTextPrompt(ctx, "tutor.prompt.mdx")
//	out, err := prompt.Format(ctx, props, agentmark.AdaptOptions{})
//
// # Error Handling
//
// Errors are *cuserr.CustomError values wrapping a sentinel, so callers can
// match categories with errors.Is:
//
//	if errors.Is(err, agentmark.ErrOrdering) {
//	    // System tag was not the first message
//	}
package agentmark
