package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/anilyagiz/dDef/internal/clock"
	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/host"
	"github.com/anilyagiz/dDef/internal/timelock"
	"github.com/anilyagiz/dDef/pkg/db/pebble"
	"github.com/anilyagiz/dDef/pkg/log"
)

const usage = `usage: timelock [-config file] <command> [flags]

commands:
  keygen                 write a new key file
  create-account         create a timelock state account
  queue                  queue a critical function
  cancel                 cancel a queued function
  sweep                  execute every due function
  set-delegate           set the account delegate
  set-function-delegate  set the delegate of one queued function
  show                   print the state of an account
`

var errUsage = errors.New("invalid usage")

// main drives a local host.
// go run ./cmd/timelock keygen -out alice.json
func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("timelock", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "path to a TOML config file")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if global.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := initLogging(cfg, stderr); err != nil {
		return err
	}

	name, cmdArgs := global.Arg(0), global.Args()[1:]
	if name == "keygen" {
		return keygen(cmdArgs, stdout, stderr)
	}

	kv, err := pebble.NewKVStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DataDir, err)
	}
	accounts := host.NewAccountStore(kv)
	defer accounts.Close()

	c := &cli{
		cfg:      cfg,
		accounts: accounts,
		runtime:  host.NewRuntime(accounts, timelock.ProgramID, timelock.New(), clock.SystemSource{}),
		stdout:   stdout,
		stderr:   stderr,
	}

	switch name {
	case "create-account":
		return c.createAccount(cmdArgs)
	case "queue":
		return c.queue(ctx, cmdArgs)
	case "cancel":
		return c.cancel(ctx, cmdArgs)
	case "sweep":
		return c.sweep(ctx, cmdArgs)
	case "set-delegate":
		return c.setDelegate(ctx, cmdArgs)
	case "set-function-delegate":
		return c.setFunctionDelegate(ctx, cmdArgs)
	case "show":
		return c.show(cmdArgs)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

func initLogging(cfg Config, out io.Writer) error {
	level, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := log.ParseLoggerType(cfg.LogFormat)
	if err != nil {
		return err
	}
	log.Init(log.Options{LogLevel: level, Type: format, Output: out})
	return nil
}

func keygen(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("keygen", stderr)
	out := fs.String("out", "", "key file to create")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *out == "" {
		return fmt.Errorf("%w: -out is required", errUsage)
	}

	key, err := generateKeyFile(*out)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, key)
	return nil
}

type cli struct {
	cfg      Config
	accounts *host.AccountStore
	runtime  *host.Runtime
	stdout   io.Writer
	stderr   io.Writer
}

func (c *cli) createAccount(args []string) error {
	fs := newFlagSet("create-account", c.stderr)
	keyStr := fs.String("key", "", "account key, random if empty")
	capacity := fs.Int("capacity", c.cfg.AccountCapacity, "bytes the account can hold")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	var key crypto.PublicKey
	if *keyStr == "" {
		if _, err := rand.Read(key[:]); err != nil {
			return err
		}
	} else {
		var err error
		if key, err = crypto.ParsePublicKey(*keyStr); err != nil {
			return err
		}
	}

	if err := c.accounts.Create(key, *capacity); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, key)
	return nil
}

// txFlags are shared by every command that submits a transaction.
type txFlags struct {
	signer  *string
	account *string
}

func addTxFlags(fs *flag.FlagSet) txFlags {
	return txFlags{
		signer:  fs.String("signer", "", "key file of the caller"),
		account: fs.String("account", "", "timelock state account"),
	}
}

func (c *cli) submit(ctx context.Context, f txFlags, ins timelock.Instruction) error {
	if *f.signer == "" || *f.account == "" {
		return fmt.Errorf("%w: -signer and -account are required", errUsage)
	}
	signer, priv, err := loadKeyFile(*f.signer)
	if err != nil {
		return err
	}
	account, err := crypto.ParsePublicKey(*f.account)
	if err != nil {
		return err
	}

	data, err := timelock.Pack(ins)
	if err != nil {
		return err
	}
	tx := host.NewTransaction(signer, []host.AccountMeta{
		{Key: account, IsWritable: true},
		{Key: clock.SysvarKey},
	}, data)
	if err := tx.Sign(priv); err != nil {
		return err
	}

	res, err := c.runtime.Execute(ctx, tx)
	if err != nil {
		return err
	}
	for _, ev := range res.Events {
		fmt.Fprintf(c.stdout, "%s %+v\n", ev.EventName(), ev)
	}
	return nil
}

func (c *cli) queue(ctx context.Context, args []string) error {
	fs := newFlagSet("queue", c.stderr)
	tf := addTxFlags(fs)
	function := fs.String("function", "", "withdraw or delete")
	amount := fs.Uint64("amount", 0, "amount to withdraw")
	target := fs.String("target", "", "withdraw target key")
	delay := fs.Int64("delay", timelock.DefaultDelayForCriticalFunction, "requested delay in seconds")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	var fn timelock.CriticalFunction
	switch strings.ToLower(*function) {
	case "withdraw":
		to, err := crypto.ParsePublicKey(*target)
		if err != nil {
			return fmt.Errorf("-target: %w", err)
		}
		fn = timelock.NewWithdrawAllFunds(*amount, to)
	case "delete":
		fn = timelock.NewDeleteAccount()
	default:
		return fmt.Errorf("%w: -function must be withdraw or delete", errUsage)
	}

	return c.submit(ctx, tf, timelock.QueueCriticalFunction{Function: fn, DelaySeconds: *delay})
}

func (c *cli) cancel(ctx context.Context, args []string) error {
	fs := newFlagSet("cancel", c.stderr)
	tf := addTxFlags(fs)
	index := fs.Uint64("index", 0, "index of the queued function")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return c.submit(ctx, tf, timelock.CancelFunction{FunctionIndex: *index})
}

func (c *cli) sweep(ctx context.Context, args []string) error {
	fs := newFlagSet("sweep", c.stderr)
	tf := addTxFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return c.submit(ctx, tf, timelock.CheckExecution{})
}

func (c *cli) setDelegate(ctx context.Context, args []string) error {
	fs := newFlagSet("set-delegate", c.stderr)
	tf := addTxFlags(fs)
	delegate := fs.String("delegate", "", "delegate key")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	key, err := crypto.ParsePublicKey(*delegate)
	if err != nil {
		return fmt.Errorf("-delegate: %w", err)
	}
	return c.submit(ctx, tf, timelock.SetDelegate{Delegate: key})
}

func (c *cli) setFunctionDelegate(ctx context.Context, args []string) error {
	fs := newFlagSet("set-function-delegate", c.stderr)
	tf := addTxFlags(fs)
	index := fs.Uint64("index", 0, "index of the queued function")
	delegate := fs.String("delegate", "", "delegate key")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	key, err := crypto.ParsePublicKey(*delegate)
	if err != nil {
		return fmt.Errorf("-delegate: %w", err)
	}
	return c.submit(ctx, tf, timelock.SetFunctionDelegate{FunctionIndex: *index, Delegate: key})
}

func (c *cli) show(args []string) error {
	fs := newFlagSet("show", c.stderr)
	account := fs.String("account", "", "timelock state account")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	key, err := crypto.ParsePublicKey(*account)
	if err != nil {
		return fmt.Errorf("-account: %w", err)
	}

	acc, err := c.accounts.Get(key)
	if err != nil {
		return err
	}
	state, err := timelock.LoadState(acc)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "account: %s (%d/%d bytes)\n", key, acc.DataLen(), acc.Capacity)
	fmt.Fprintf(c.stdout, "delegate: %s\n", optionalKey(state.Delegate))
	for i, qf := range state.QueuedFunctions {
		fmt.Fprintf(c.stdout, "%d: %s execution_time=%d cancelled=%t initiator=%s delegate=%s\n",
			i, qf.Function, qf.ExecutionTime, qf.Cancelled, qf.Initiator, optionalKey(qf.Delegate))
	}
	return nil
}

func optionalKey(k *crypto.PublicKey) string {
	if k == nil {
		return "none"
	}
	return k.String()
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}
