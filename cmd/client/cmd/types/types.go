package types

// ContextKey is the type for values stored on the command context.
type ContextKey string

// ClientAppKey carries the initialized *client.App.
const ClientAppKey ContextKey = "clientApp"
