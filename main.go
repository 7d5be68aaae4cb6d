package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/timelock/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keygen":
		runKeygen(ctx, os.Args[2:])
	case "keys":
		runKeys(ctx, os.Args[2:])
	case "init":
		runInit(ctx, os.Args[2:])
	case "add-asset":
		runAddAsset(ctx, os.Args[2:])
	case "set-duration":
		runSetDuration(ctx, os.Args[2:])
	case "fund":
		runFund(ctx, os.Args[2:])
	case "lock":
		runLock(ctx, os.Args[2:])
	case "unlock":
		runUnlock(ctx, os.Args[2:])
	case "ls", "status":
		runStatus(ctx, os.Args[1], os.Args[2:])
	case "balance":
		runBalance(ctx, os.Args[2:])
	case "authority":
		runAuthority(ctx, os.Args[2:])
	case "metrics":
		runMetrics(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parse parses args and checks the positional argument count
func parse(fs *flag.FlagSet, args []string, want int) []string {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if fs.NArg() != want {
		fmt.Fprintf(os.Stderr, "Error: %s expects %d argument(s), got %d\n", fs.Name(), want, fs.NArg())
		printCommandHelp(fs.Name())
		os.Exit(1)
	}
	return fs.Args()
}

func keyFlag(fs *flag.FlagSet) *string {
	return fs.String("key", "", "Name of the signing key in the keystore")
}

func runKeygen(_ context.Context, args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	pos := parse(fs, args, 1)
	cmd.Keygen(pos[0])
}

func runKeys(_ context.Context, args []string) {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	parse(fs, args, 0)
	cmd.Keys()
}

// check reports err after the command has released its resources
func check(err error) {
	if err != nil {
		cmd.HandleError(err)
	}
}

func runInit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	key := keyFlag(fs)
	parse(fs, args, 0)
	check(cmd.Init(ctx, *key))
}

func runAddAsset(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add-asset", flag.ExitOnError)
	key := keyFlag(fs)
	pos := parse(fs, args, 1)
	check(cmd.AddAsset(ctx, *key, pos[0]))
}

func runSetDuration(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("set-duration", flag.ExitOnError)
	key := keyFlag(fs)
	pos := parse(fs, args, 1)
	check(cmd.SetDuration(ctx, *key, pos[0]))
}

func runFund(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("fund", flag.ExitOnError)
	key := keyFlag(fs)
	pos := parse(fs, args, 3)
	check(cmd.Fund(ctx, *key, pos[0], pos[1], pos[2]))
}

func runLock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	key := keyFlag(fs)
	dryRun := fs.Bool("dry-run", false, "Show the resulting vault without changing anything")
	pos := parse(fs, args, 2)
	check(cmd.Lock(ctx, *key, pos[0], pos[1], *dryRun))
}

func runUnlock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	key := keyFlag(fs)
	dryRun := fs.Bool("dry-run", false, "Show the resulting vault without changing anything")
	pos := parse(fs, args, 1)
	check(cmd.Unlock(ctx, *key, pos[0], *dryRun))
}

func runStatus(ctx context.Context, name string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	owner := fs.String("owner", "", "Only show vaults of this owner (identity or key name)")
	parse(fs, args, 0)
	cmd.Status(ctx, *owner)
}

func runBalance(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	pos := parse(fs, args, 2)
	cmd.Balance(ctx, pos[0], pos[1])
}

func runAuthority(_ context.Context, args []string) {
	fs := flag.NewFlagSet("authority", flag.ExitOnError)
	pos := parse(fs, args, 2)
	cmd.Authority(pos[0], pos[1])
}

func runMetrics(_ context.Context, args []string) {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	out := fs.String("out", "", "Write metrics to this file instead of stdout")
	parse(fs, args, 0)
	cmd.Metrics(*out)
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	parse(fs, args, 0)
	cmd.Compact()
}

func runKeyring(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: timelock keyring <save|delete|status> --key <name>")
		os.Exit(1)
	}
	fs := flag.NewFlagSet("keyring", flag.ExitOnError)
	key := keyFlag(fs)
	parse(fs, args[1:], 0)
	if *key == "" {
		fmt.Fprintln(os.Stderr, "Error: --key is required")
		os.Exit(1)
	}

	switch args[0] {
	case "save":
		check(cmd.KeyringSave(*key))
	case "delete":
		check(cmd.KeyringDelete(*key))
	case "status":
		check(cmd.KeyringStatus(*key))
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: timelock completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("timelock - Time-locked token custody")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  timelock <command> [flags] [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  keygen        Create a password-sealed signing key")
	fmt.Println("  keys          List stored keys")
	fmt.Println("  init          Initialize admin settings (admin = --key)")
	fmt.Println("  add-asset     Add an asset to the allow-list (admin)")
	fmt.Println("  set-duration  Change the default lock duration (admin)")
	fmt.Println("  fund          Issue tokens to a holder (admin)")
	fmt.Println("  lock          Lock tokens for the current lock duration")
	fmt.Println("  unlock        Unlock all tokens once the lock period is over")
	fmt.Println("  ls, status    Show settings, assets and vaults")
	fmt.Println("  balance       Show a ledger balance")
	fmt.Println("  authority     Show the custody authority of an owner and asset")
	fmt.Println("  metrics       Export Prometheus metrics")
	fmt.Println("  compact       Compact the database to reclaim disk space")
	fmt.Println("  keyring       Manage key passwords in the OS keyring")
	fmt.Println("  completion    Generate shell completions")
	fmt.Println("  help          Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  timelock keygen admin")
	fmt.Println("  timelock init --key admin")
	fmt.Println("  timelock add-asset --key admin <asset>")
	fmt.Println("  timelock lock --key alice <asset> 100")
	fmt.Println("  timelock unlock --key alice <asset>")
	fmt.Println()
	fmt.Println("Flags go before positional arguments.")
	fmt.Println("Configuration: timelock.yaml or $TIMELOCK_CONFIG, overridden by TIMELOCK_* variables.")
	fmt.Println("Use 'timelock help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "keygen":
		fmt.Println("timelock keygen <name>")
		fmt.Println()
		fmt.Println("Generates an ed25519 signing key and stores it in the keystore,")
		fmt.Println("sealed with a password (TIMELOCK_PASSWORD or prompt).")
	case "keys":
		fmt.Println("timelock keys")
		fmt.Println()
		fmt.Println("Lists key names and addresses. Does not require a password.")
	case "init":
		fmt.Println("timelock init --key <name>")
		fmt.Println()
		fmt.Println("Creates the admin settings. The key becomes the admin and the")
		fmt.Println("default lock duration is 86400 seconds. Can only be run once.")
	case "add-asset":
		fmt.Println("timelock add-asset --key <admin> <asset>")
		fmt.Println()
		fmt.Println("Adds an asset to the allow-list. Assets cannot be removed.")
	case "set-duration":
		fmt.Println("timelock set-duration --key <admin> <seconds|duration>")
		fmt.Println()
		fmt.Println("Sets the lock duration for future locks, e.g. 3600 or 72h.")
		fmt.Println("Running locks keep their end time.")
	case "fund":
		fmt.Println("timelock fund --key <admin> <holder> <asset> <amount>")
		fmt.Println()
		fmt.Println("Issues new tokens to a holder's ledger account.")
	case "lock":
		fmt.Println("timelock lock --key <name> [--dry-run] <asset> <amount>")
		fmt.Println()
		fmt.Println("Moves tokens into custody. Locking into a vault that already holds")
		fmt.Println("tokens adds to it and restarts the lock window from now.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --dry-run   Print the vault change without applying it")
	case "unlock":
		fmt.Println("timelock unlock --key <name> [--dry-run] <asset>")
		fmt.Println()
		fmt.Println("Returns all locked tokens once the lock period is over.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --dry-run   Print the vault change without applying it")
	case "ls", "status":
		fmt.Println("timelock status [--owner <identity|key>]")
		fmt.Println()
		fmt.Println("Shows settings, supported assets, vaults and git hygiene.")
		fmt.Println("Does not require a password.")
	case "balance":
		fmt.Println("timelock balance <holder> <asset>")
	case "authority":
		fmt.Println("timelock authority <owner> <asset>")
		fmt.Println()
		fmt.Println("Prints the derived custody authority, its bump and custody account.")
	case "metrics":
		fmt.Println("timelock metrics [--out <file>]")
		fmt.Println()
		fmt.Println("Prints metrics in Prometheus text format, or writes them to a file")
		fmt.Println("for the node_exporter textfile collector.")
	case "compact":
		fmt.Println("timelock compact")
		fmt.Println()
		fmt.Println("Compacts the database to reclaim unused disk space.")
	case "keyring":
		fmt.Println("timelock keyring <save|delete|status> --key <name>")
		fmt.Println()
		fmt.Println("Caches a key's password in the OS keyring so commands do not prompt.")
	case "completion":
		fmt.Println("timelock completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(timelock completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(timelock completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  timelock completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
