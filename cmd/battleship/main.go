package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"battleship/internal/app"
	"battleship/internal/codec"
	"battleship/internal/config"
	"battleship/internal/game"
	"battleship/internal/match"
	"battleship/internal/server"
	"battleship/internal/zk"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := config.NewLogger(os.Stderr, cfg.LogLevel)
	gnarklogger.Set(log)

	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		err = cmdServe(cfg, log, args)
	case "play":
		err = cmdPlay(cfg, log, args)
	case "layout":
		err = cmdLayout(cfg, log, args)
	case "shoot":
		err = cmdShoot(cfg, args)
	case "verify":
		err = cmdVerify(cfg, args)
	default:
		usage(os.Stdout)
		return
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", os.Args[1]).Msg("command failed")
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Battleship CLI

Commands:
  serve  --addr :8080 --keys ./keys --proofs=true --delay 300ms
  play   --size 10 --dev --seed N --options options.json
  layout --size 10 --seed N --secret secret.json --keys ./keys
  shoot  --secret secret.json --keys ./keys --row R --col C --out proof.json
  verify --vk ./keys/shot.vk --root ROOT_HEX --proof proof.json --row R --col C --size 10

Environment:
  BATTLESHIP_ADDR BATTLESHIP_KEYS_DIR BATTLESHIP_LOG_LEVEL BATTLESHIP_GRID_SIZE
  BATTLESHIP_DEVELOPER_MODE BATTLESHIP_PRESENTATION_DELAY BATTLESHIP_PROOFS
`)
}

func cmdServe(cfg config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "listen address")
	keys := fs.String("keys", cfg.KeysDir, "keys directory")
	proofs := fs.Bool("proofs", cfg.Proofs, "commit layouts and serve strike proofs")
	delay := fs.Duration("delay", cfg.PresentationDelay, "delay before statistics are published")
	_ = fs.Parse(args)

	if *proofs {
		if err := zk.EnsureShotKeys(*keys, log); err != nil {
			return err
		}
	}

	defaults := match.DefaultOptions()
	defaults.Size = cfg.GridSize
	defaults.DeveloperMode = cfg.DeveloperMode
	srv := server.New(server.Config{
		KeysDir:           *keys,
		Proofs:            *proofs,
		PresentationDelay: *delay,
		Defaults:          defaults,
	}, server.WithLogger(log))
	defer srv.Close()
	if _, err := srv.StartMatch(nil); err != nil {
		return err
	}

	mux := http.NewServeMux()
	srv.Routes(mux)
	hs := &http.Server{
		Addr:              *addr,
		Handler:           server.WithCORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.Info().Str("addr", *addr).Bool("proofs", *proofs).Msg("serving")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := hs.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cmdLayout(cfg config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	size := fs.Int("size", cfg.GridSize, "grid size [10..100]")
	seed := fs.Int64("seed", 0, "placement seed (0 = random)")
	secretPath := fs.String("secret", "secret.json", "defender secret state")
	keysDir := fs.String("keys", cfg.KeysDir, "keys directory")
	_ = fs.Parse(args)

	opts := match.DefaultOptions()
	opts.Size = *size
	m, err := match.New(opts, match.ObserverFuncs{}, match.WithLogger(log), match.WithGridOptions(seedOption(*seed)...))
	if err != nil {
		return err
	}
	if err := m.Start(); err != nil {
		return err
	}

	c, err := app.Commit(m.Grid().Layout(), *keysDir, log)
	if err != nil {
		return err
	}
	if err := saveJSON(*secretPath, &c.Secret); err != nil {
		return err
	}
	fmt.Println("ROOT:", c.RootHex())
	fmt.Println("✓ wrote", *secretPath)
	return nil
}

func cmdShoot(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("shoot", flag.ExitOnError)
	secretPath := fs.String("secret", "secret.json", "defender secret state")
	keysDir := fs.String("keys", cfg.KeysDir, "keys directory")
	row := fs.Int("row", 0, "row")
	col := fs.Int("col", 0, "col")
	out := fs.String("out", "proof.json", "proof output")
	_ = fs.Parse(args)

	var sec codec.Secret
	if err := loadJSON(*secretPath, &sec); err != nil {
		return err
	}
	res, err := app.Shoot(sec, *keysDir, *row, *col)
	if err != nil {
		return err
	}
	if err := saveJSON(*out, &res.Payload); err != nil {
		return err
	}
	fmt.Printf("✓ wrote %s (result: %s)\n", *out, hitName(res.Bit))
	return nil
}

func cmdVerify(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	vkPath := fs.String("vk", zk.VKPath(cfg.KeysDir), "verifying key file")
	rootHex := fs.String("root", "", "root hex prefixed 0x")
	proofPath := fs.String("proof", "proof.json", "proof payload json")
	row := fs.Int("row", -1, "row")
	col := fs.Int("col", -1, "col")
	size := fs.Int("size", cfg.GridSize, "grid size the layout was committed on")
	_ = fs.Parse(args)

	if *rootHex == "" {
		return errors.New("--root required")
	}
	root, err := codec.ParseHex(*rootHex)
	if err != nil {
		return err
	}
	if *row < 0 || *row >= *size || *col < 0 || *col >= *size {
		return game.ErrOutOfBounds
	}

	var payload codec.ShotProofPayload
	if err := loadJSON(*proofPath, &payload); err != nil {
		return err
	}
	res, err := app.VerifyWithRoot(*vkPath, root, *row**size+*col, payload)
	if err != nil {
		return err
	}
	if !res.Valid {
		return errors.New("invalid proof")
	}
	fmt.Println(hitName(res.Hit))
	return nil
}

func hitName(bit uint8) string {
	if bit == 1 {
		return "HIT"
	}
	return "MISS"
}

func seedOption(seed int64) []game.GridOption {
	if seed == 0 {
		return nil
	}
	return []game.GridOption{game.WithRand(rand.New(rand.NewSource(seed)))}
}

func saveJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	return dec.Decode(v)
}
