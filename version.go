package assistant

// Version is the version of the assistant. It is set at build time using ldflags.
var Version = "dev"
