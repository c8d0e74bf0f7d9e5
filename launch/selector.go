package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"strings"

	"quarzo.network/launcher/identity"
	"quarzo.network/launcher/nat"
	"quarzo.network/launcher/netscan"
	"quarzo.network/launcher/replicant"
	"quarzo.network/launcher/storage"
)

// Defaults are the operator-configurable values the selector composes with.
type Defaults struct {
	// DataRoot is the directory holding artifacts and per-network
	// storage namespaces.
	DataRoot string
	// OfflineArtifact is the fixed bootstrap artifact for offline runs.
	OfflineArtifact string
	// BootstrapPath is the local artifact used when replication from an
	// origin is impossible.
	BootstrapPath string

	HTTPPort uint16
	// P2PPort is the desired inbound p2p port requested from the gateway.
	P2PPort uint16

	TestMode bool

	// NodeVersion and CoreVersion are compared against an origin's visa.
	NodeVersion string
	CoreVersion string
}

// Selector is the launch mode state machine. It reads the operator's
// choice, gathers the remaining facts through its collaborators, and
// composes the launch parameters.
//
// Transitions are strictly forward: SelectMode, then exactly one mode path,
// then Launch or Aborted. Switching modes means restarting the selector.
//
// Every collaborator is injectable so the machine runs deterministically
// under test: In supplies operator input, Echo and Negotiator stand in for
// the external services, LocalAddrs for interface enumeration.
type Selector struct {
	In  io.Reader
	Out io.Writer
	Log *slog.Logger

	Echo       netscan.Echo
	Negotiator nat.Negotiator
	Replicant  *replicant.Client
	Store      *storage.Store

	// LocalAddrs defaults to netscan.LocalAddresses.
	LocalAddrs func() ([]netip.Addr, error)

	Defaults Defaults

	scanner *bufio.Scanner
}

// ErrAborted is returned when the operator quits at the mode prompt.
// It is a control-flow signal; the process exits 0 without launching.
var ErrAborted = newError(KindUserAbort, "aborted by operator")

// discovered holds the address facts gathered for one run.
type discovered struct {
	local      []netip.Addr
	public     netip.Addr
	hasPublic  bool
	mapping    nat.Mapping
	hasMapping bool
}

// Run drives the state machine to completion and returns the assembled
// parameters, or ErrAborted when the operator quits.
func (s *Selector) Run(ctx context.Context) (*Parameters, error) {
	mode, err := s.selectMode()
	if err != nil {
		return nil, err
	}

	var p *Parameters
	switch m := mode.(type) {
	case Offline:
		p = s.composeOffline()
	case KnownNetwork:
		p, err = s.composeReplicant(ctx, m.Origin())
	case CustomPeer:
		p, err = s.composeCustomPeer(ctx, m)
	case AutoReplicant:
		p, err = s.composeReplicant(ctx, m.Origin)
	default:
		return nil, fmt.Errorf("launch: unhandled mode %T", mode)
	}
	if err != nil {
		return nil, err
	}

	return p, s.finalize(p)
}

// selectMode is the SelectMode state: it re-prompts on unrecognized input
// and only leaves through a valid mode or quit.
func (s *Selector) selectMode() (Mode, error) {
	for {
		line, err := s.readLine("mode [offline/testnet/mainnet/custom/quit]")
		if err != nil {
			return nil, err
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		switch choice {
		case "offline":
			return Offline{}, nil
		case "testnet", "mainnet":
			return KnownNetwork{Name: choice}, nil
		case "custom":
			return s.selectCustom()
		case "quit", "q":
			return nil, ErrAborted
		default:
			s.Log.Warn("unrecognized mode", "input", choice)
			fmt.Fprintln(s.Out, "unrecognized mode, choose one of: offline, testnet, mainnet, custom, quit")
		}
	}
}

// selectCustom picks the custom sub-path: an explicit peer or an
// auto-replicant origin. The two are mutually exclusive; the choice is made
// before any parameter collection.
func (s *Selector) selectCustom() (Mode, error) {
	for {
		line, err := s.readLine("join via [peer/replicant]")
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "peer":
			peer, err := s.readNonEmpty("peer address (ip:port)")
			if err != nil {
				return nil, err
			}
			storagePath, err := s.readLine("storage path (empty for default)")
			if err != nil {
				return nil, err
			}
			artifact, err := s.readLine("bootstrap artifact path (empty for default)")
			if err != nil {
				return nil, err
			}
			return CustomPeer{
				PeerAddr:     peer,
				StoragePath:  strings.TrimSpace(storagePath),
				ArtifactPath: strings.TrimSpace(artifact),
			}, nil
		case "replicant":
			origin, err := s.readNonEmpty("replication origin URL")
			if err != nil {
				return nil, err
			}
			return AutoReplicant{Origin: origin}, nil
		default:
			s.Log.Warn("unrecognized sub-path", "input", strings.TrimSpace(line))
			fmt.Fprintln(s.Out, "choose one of: peer, replicant")
		}
	}
}

// composeOffline bypasses discovery and negotiation entirely.
func (s *Selector) composeOffline() *Parameters {
	s.Log.Info("offline mode: skipping address discovery and negotiation")
	return &Parameters{
		Offline:       true,
		TestMode:      s.Defaults.TestMode,
		HTTPPort:      s.Defaults.HTTPPort,
		BootstrapPath: s.Defaults.OfflineArtifact,
		DBPath:        storage.OfflineDir(s.Defaults.DataRoot),
	}
}

// composeReplicant joins through a replication origin: fetch its bootstrap
// artifact (falling back to the local one), then gather reachability facts.
func (s *Selector) composeReplicant(ctx context.Context, origin string) (*Parameters, error) {
	p := &Parameters{
		AutoreplicantOrigin: origin,
		TestMode:            s.Defaults.TestMode,
		HTTPPort:            s.Defaults.HTTPPort,
		BootstrapPath:       s.Defaults.BootstrapPath,
	}

	if s.Replicant != nil && s.Store != nil {
		art, err := s.Replicant.FetchBootstrap(ctx, origin, s.Store)
		if err != nil {
			s.Log.Warn("bootstrap replication failed, falling back to local artifact",
				"origin", origin, "fallback", p.BootstrapPath, "error", err)
		} else {
			s.Log.Info("bootstrap artifact replicated", "origin", origin, "identity", art.Identity)
			p.BootstrapPath = art.Path
		}

		if visa, err := s.Replicant.Visa(ctx, origin); err != nil {
			s.Log.Warn("origin visa unavailable", "origin", origin, "error", err)
		} else {
			replicant.CheckVersions(s.Log, s.Defaults.NodeVersion, s.Defaults.CoreVersion, visa)
		}
	}

	s.applyFacts(p, s.discover(ctx))
	return p, nil
}

// composeCustomPeer joins through an explicit peer; this node's own
// reachability is still discovered and negotiated.
func (s *Selector) composeCustomPeer(ctx context.Context, m CustomPeer) (*Parameters, error) {
	p := &Parameters{
		P2PBootstrapAddr: m.PeerAddr,
		TestMode:         s.Defaults.TestMode,
		HTTPPort:         s.Defaults.HTTPPort,
		BootstrapPath:    m.ArtifactPath,
		DBPath:           m.StoragePath,
	}
	if p.BootstrapPath == "" {
		p.BootstrapPath = s.Defaults.BootstrapPath
	}

	s.applyFacts(p, s.discover(ctx))
	return p, nil
}

// discover gathers local addresses, the echoed public address, and a NAT
// mapping. Each step is single-attempt; every failure is absorbed and
// logged, and a status line is emitted per phase regardless of outcome.
func (s *Selector) discover(ctx context.Context) discovered {
	var f discovered

	localAddrs := s.LocalAddrs
	if localAddrs == nil {
		localAddrs = netscan.LocalAddresses
	}
	local, err := localAddrs()
	if err != nil {
		s.Log.Warn("local address enumeration failed", "error", err)
	}
	f.local = local
	s.Log.Info("address discovery", "local", len(local))

	if s.Echo != nil {
		f.public, f.hasPublic = netscan.PublicAddress(ctx, s.Echo, s.Log)
	} else {
		s.Log.Info("public address discovery skipped: no echo service configured")
	}

	if s.Negotiator != nil && len(f.local) > 0 {
		m, err := s.Negotiator.Negotiate(ctx, f.local[0], s.Defaults.P2PPort)
		if err != nil {
			s.Log.Warn("nat negotiation failed, continuing without inbound mapping", "error", err)
		} else {
			s.Log.Info("nat mapping negotiated", "mapping", m.String())
			f.mapping, f.hasMapping = m, true
		}
	} else {
		s.Log.Info("nat negotiation skipped")
	}

	return f
}

// applyFacts folds discovery results into the parameter record. A
// negotiated mapping is authoritative for the public endpoint; otherwise
// the echoed address is used, and a fully failed discovery leaves both
// public fields unset.
func (s *Selector) applyFacts(p *Parameters, f discovered) {
	if len(f.local) > 0 {
		p.LocalIP = f.local[0]
	}
	if f.hasMapping {
		p.PublicIP = f.mapping.PublicAddr
		p.P2PPort = f.mapping.PublicPort
		p.HasP2PPort = true
		return
	}
	if f.hasPublic {
		p.PublicIP = f.public
	}
}

// finalize derives the network identity (which doubles as the artifact
// presence check) and defaults the storage namespace from it.
func (s *Selector) finalize(p *Parameters) error {
	art, err := identity.DeriveFile(p.BootstrapPath)
	if err != nil {
		if identity.IsKind(err, identity.KindMissingArtifact) {
			return wrapError(KindMissingArtifact,
				fmt.Sprintf("bootstrap artifact not found: %s", p.BootstrapPath), err)
		}
		return err
	}
	s.Log.Info("network identity derived", "identity", art.Identity)

	if p.DBPath == "" {
		p.DBPath = storage.NamespaceDir(s.Defaults.DataRoot, art.Identity)
	}
	return nil
}

func (s *Selector) readLine(label string) (string, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.In)
	}
	fmt.Fprintf(s.Out, "%s: ", label)
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		// Input exhausted; treat like quitting.
		return "", ErrAborted
	}
	return s.scanner.Text(), nil
}

func (s *Selector) readNonEmpty(label string) (string, error) {
	for {
		line, err := s.readLine(label)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		fmt.Fprintln(s.Out, "a value is required")
	}
}
