package launch

// Mode is the operator-chosen join mode, picked once per run and immutable
// afterward. The concrete types form a closed tagged union; parameter
// composition switches over them exhaustively.
type Mode interface {
	isMode()
}

// Offline runs the node against the fixed offline artifact and the fixed
// offline storage namespace, with no network discovery at all.
type Offline struct{}

// KnownNetwork joins one of the well-known public networks through its
// fixed replication origin.
type KnownNetwork struct {
	Name string // "testnet" or "mainnet"
}

// CustomPeer joins through an explicit peer address with operator-provided
// storage and artifact paths.
type CustomPeer struct {
	PeerAddr     string
	StoragePath  string
	ArtifactPath string
}

// AutoReplicant bootstraps state by replicating from an operator-provided
// origin URL.
type AutoReplicant struct {
	Origin string
}

func (Offline) isMode()       {}
func (KnownNetwork) isMode()  {}
func (CustomPeer) isMode()    {}
func (AutoReplicant) isMode() {}

// Fixed replication origins for the well-known networks.
const (
	TestnetOrigin = "https://testnet.quarzo.network"
	MainnetOrigin = "https://mainnet.quarzo.network"
)

// Origin returns the fixed replication origin for a known network.
func (k KnownNetwork) Origin() string {
	switch k.Name {
	case "mainnet":
		return MainnetOrigin
	default:
		return TestnetOrigin
	}
}
