package common

const (
	// DefaultHost is the peer a client connects to when none is given.
	DefaultHost = "localhost"

	// DefaultPort is the TCP port used when none is given.
	DefaultPort = 9876

	// DefaultMaxTimeouts is the number of consecutive retransmission timeouts
	// without progress after which a transfer is abandoned.
	DefaultMaxTimeouts = 16

	// CRLF terminates every line the sender writes.
	CRLF = "\r\n"
)

// Mode constants
const (
	ClientMode = "client" // dial the peer
	ServerMode = "server" // accept one peer
)
