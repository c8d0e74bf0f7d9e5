// Command quarzo-launch prepares and starts a quarzo node: it resolves the
// operator's join mode, derives the network identity from the bootstrap
// artifact, discovers this host's addresses, negotiates a NAT mapping, and
// invokes the node executable with the assembled parameters.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"quarzo.network/launcher/keys"
	"quarzo.network/launcher/launch"
	"quarzo.network/launcher/nat"
	"quarzo.network/launcher/netscan"
	"quarzo.network/launcher/replicant"
	"quarzo.network/launcher/storage"
)

const (
	launcherVersion = "0.3.0"
	coreVersion     = "0.3.0"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	dataRoot        string
	nodeBin         string
	negotiatorBin   string
	echoTransport   string
	echoURL         string
	httpPort        uint
	p2pPort         uint
	bootstrapPath   string
	offlineArtifact string
	keysPath        string
	mode            string
	testMode        bool
	logLevel        string
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("quarzo-launch", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.dataRoot, "data-root", "data", "directory for artifacts and storage namespaces")
	fs.StringVar(&opts.nodeBin, "node-bin", "quarzo-node", "node executable (path or name on PATH)")
	fs.StringVar(&opts.negotiatorBin, "negotiator", "", "UPnP negotiator binary (default: best-effort 'upnp-negotiator' from PATH)")
	fs.StringVar(&opts.echoTransport, "echo", "dns", "public address echo transport: dns, http or none")
	fs.StringVar(&opts.echoURL, "echo-url", "", "endpoint for the http echo transport")
	fs.UintVar(&opts.httpPort, "http-port", 8000, "node http service port")
	fs.UintVar(&opts.p2pPort, "p2p-port", 41000, "desired inbound p2p port for NAT negotiation")
	fs.StringVar(&opts.bootstrapPath, "bootstrap", "bootstrap.bin", "local bootstrap artifact used when replication is unavailable")
	fs.StringVar(&opts.offlineArtifact, "offline-bootstrap", "", "bootstrap artifact for offline runs (default <data-root>/offline.bin)")
	fs.StringVar(&opts.keysPath, "keys", "", "node keypair seed file (default: generate an ephemeral keypair)")
	fs.StringVar(&opts.mode, "mode", "", "non-interactive mode: offline, testnet or mainnet")
	fs.BoolVar(&opts.testMode, "test-mode", false, "pass --test-mode to the node")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.httpPort > 65535 || opts.p2pPort > 65535 {
		fmt.Fprintln(errOut, "ports must fit in 16 bits")
		return 2
	}
	if opts.offlineArtifact == "" {
		opts.offlineArtifact = filepath.Join(opts.dataRoot, "offline.bin")
	}

	log := newLogger(errOut, opts.logLevel)
	log.Info("quarzo launcher", "version", launcherVersion, "core", coreVersion)

	if err := prepare(context.Background(), log, in, out, &opts); err != nil {
		if launch.IsKind(err, launch.KindUserAbort) {
			log.Info("no launch requested")
			return 0
		}
		log.Error("launch failed", "error", err)
		return 1
	}
	return 0
}

func prepare(ctx context.Context, log *slog.Logger, in io.Reader, out io.Writer, opts *options) error {
	// An explicitly configured negotiator must exist up front; the default
	// one is best-effort and may be absent.
	if opts.negotiatorBin != "" {
		if err := launch.CheckTool("negotiator", opts.negotiatorBin); err != nil {
			return err
		}
	}

	kp, err := keys.LoadOrGenerate(opts.keysPath)
	if err != nil {
		return err
	}
	p2p, err := kp.DeriveP2P()
	if err != nil {
		return err
	}
	log.Info("node account", "id", kp.AccountID())
	log.Info("p2p account", "id", p2p.AccountID())

	store, err := storage.NewStore(opts.dataRoot)
	if err != nil {
		return err
	}

	sel := &launch.Selector{
		In:         in,
		Out:        out,
		Log:        log,
		Echo:       echoFor(opts),
		Negotiator: &nat.ExecNegotiator{Bin: opts.negotiatorBin},
		Replicant:  &replicant.Client{},
		Store:      store,
		Defaults: launch.Defaults{
			DataRoot:        opts.dataRoot,
			OfflineArtifact: opts.offlineArtifact,
			BootstrapPath:   opts.bootstrapPath,
			HTTPPort:        uint16(opts.httpPort),
			P2PPort:         uint16(opts.p2pPort),
			TestMode:        opts.testMode,
			NodeVersion:     launcherVersion,
			CoreVersion:     coreVersion,
		},
	}

	if opts.mode != "" {
		// A preset mode drives the selector through a scripted prompt,
		// keeping the interactive and non-interactive paths identical.
		sel.In = strings.NewReader(opts.mode + "\n")
	} else if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		log.Info("stdin is not a terminal, reading mode selection from it")
	}

	params, err := sel.Run(ctx)
	if err != nil {
		return err
	}
	banner(log, params)

	launcher := &launch.Launcher{Executable: opts.nodeBin, Log: log}
	return launcher.Launch(ctx, params)
}

// banner logs the resolved configuration before the node starts, so a
// degraded run is diagnosable after the fact.
func banner(log *slog.Logger, p *launch.Parameters) {
	log.Info("launch parameters",
		"local-ip", orUnset(p.LocalIP.IsValid(), p.LocalIP.String()),
		"public-ip", orUnset(p.PublicIP.IsValid(), p.PublicIP.String()),
		"http-port", p.HTTPPort,
		"p2p-port", orUnset(p.HasP2PPort, fmt.Sprintf("%d", p.P2PPort)),
		"bootstrap-path", p.BootstrapPath,
		"p2p-bootstrap-addr", orUnset(p.P2PBootstrapAddr != "", p.P2PBootstrapAddr),
		"db-path", p.DBPath,
		"autoreplicant", orUnset(p.AutoreplicantOrigin != "", p.AutoreplicantOrigin),
		"offline", p.Offline,
		"test-mode", p.TestMode,
	)
}

func orUnset(set bool, v string) string {
	if !set {
		return "unset"
	}
	return v
}

func echoFor(opts *options) netscan.Echo {
	switch opts.echoTransport {
	case "http":
		return &netscan.HTTPEcho{URL: opts.echoURL}
	case "none":
		return nil
	default:
		return &netscan.DNSEcho{}
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
