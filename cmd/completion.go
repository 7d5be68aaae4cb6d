package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_timelock() {
    local cur prev words cword
    _init_completion || return

    local commands="keygen keys init add-asset set-duration fund lock unlock ls status balance authority metrics compact keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    if [[ "$prev" == "--key" ]]; then
        local keys
        keys=$(timelock keys 2>/dev/null | awk '{print $1}')
        COMPREPLY=($(compgen -W "$keys" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        init|add-asset|set-duration|fund)
            COMPREPLY=($(compgen -W "--key" -- "$cur"))
            ;;
        lock|unlock)
            COMPREPLY=($(compgen -W "--key --dry-run" -- "$cur"))
            ;;
        ls|status)
            COMPREPLY=($(compgen -W "--owner" -- "$cur"))
            ;;
        metrics)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--out" -- "$cur"))
            else
                _filedir
            fi
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "--key" -- "$cur"))
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _timelock timelock
`

const zshCompletion = `#compdef timelock

_timelock() {
    local -a commands
    commands=(
        'keygen:Create a password-sealed signing key'
        'keys:List stored keys'
        'init:Initialize admin settings'
        'add-asset:Add an asset to the allow-list'
        'set-duration:Change the default lock duration'
        'fund:Issue tokens to a holder'
        'lock:Lock tokens'
        'unlock:Unlock tokens after the lock period'
        'ls:Show settings and vaults'
        'status:Show settings and vaults'
        'balance:Show a ledger balance'
        'authority:Show the custody authority of an owner and asset'
        'metrics:Export Prometheus metrics'
        'compact:Compact the database'
        'keyring:Manage key passwords in the OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'timelock commands' commands
            ;;
        args)
            case "${words[2]}" in
                init|add-asset|set-duration|fund)
                    _arguments '--key[Key name]:key:_timelock_keys' '*:argument:'
                    ;;
                lock|unlock)
                    _arguments \
                        '--key[Key name]:key:_timelock_keys' \
                        '--dry-run[Show the result without changing anything]' \
                        '*:argument:'
                    ;;
                ls|status)
                    _arguments '--owner[Only vaults of this owner]:owner:_timelock_keys'
                    ;;
                metrics)
                    _arguments '--out[Write to file]:file:_files'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'timelock commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_timelock_keys() {
    local -a keys
    keys=(${(f)"$(timelock keys 2>/dev/null | awk '{print $1}')"})
    _describe -t keys 'keys' keys
}

_timelock "$@"
`

const fishCompletion = `# timelock fish completions

set -l commands keygen keys init add-asset set-duration fund lock unlock ls status balance authority metrics compact keyring help completion

complete -c timelock -f

# Commands
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a keygen -d 'Create a signing key'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a keys -d 'List stored keys'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a init -d 'Initialize admin settings'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a add-asset -d 'Add a supported asset'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a set-duration -d 'Change lock duration'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a fund -d 'Issue tokens'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a lock -d 'Lock tokens'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a unlock -d 'Unlock tokens'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a ls -d 'Show status'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show status'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a balance -d 'Show a balance'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a authority -d 'Show custody authority'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a metrics -d 'Export metrics'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact database'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage passwords in OS keyring'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c timelock -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# flags
complete -c timelock -n "__fish_seen_subcommand_from init add-asset set-duration fund lock unlock keyring" -l key -x -a "(timelock keys 2>/dev/null | awk '{print \$1}')" -d 'Key name'
complete -c timelock -n "__fish_seen_subcommand_from lock unlock" -l dry-run -d 'Do not change anything'
complete -c timelock -n "__fish_seen_subcommand_from ls status" -l owner -x -d 'Only vaults of this owner'
complete -c timelock -n "__fish_seen_subcommand_from metrics" -l out -r -F -d 'Output file'

# keyring subcommands
complete -c timelock -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c timelock -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c timelock -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
