// Package cli provides shell completion and terminal output helpers for
// the bizhub command.
package cli

import (
	"fmt"
	"io"
)

// BashCompletion is the bash completion script.
const BashCompletion = `#!/bin/bash
# Bash completion for bizhub

_bizhub_completion() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    local commands="serve migrate token audit stock completion"

    case "${prev}" in
        -config|-env)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        serve|migrate)
            COMPREPLY=( $(compgen -W "-config -env" -- ${cur}) )
            return 0
            ;;
        token)
            COMPREPLY=( $(compgen -W "-secret -user -tenant -role -ttl" -- ${cur}) )
            return 0
            ;;
        audit)
            COMPREPLY=( $(compgen -W "-url -token -limit -timeout" -- ${cur}) )
            return 0
            ;;
        stock)
            COMPREPLY=( $(compgen -W "-url -token -product -delta -reason -timeout" -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
    return 0
}

complete -F _bizhub_completion bizhub
`

// ZshCompletion is the zsh completion script.
const ZshCompletion = `#compdef bizhub

_bizhub() {
    local -a commands
    commands=(
        'serve:Run the HTTP server'
        'migrate:Apply database migrations'
        'token:Sign an access token'
        'audit:Show recent audit entries from a running server'
        'stock:Adjust product stock on a running server'
        'completion:Generate shell completion'
    )

    _arguments -C \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                serve|migrate)
                    _arguments '-config[Configuration file]:file:_files' '-env[.env file]:file:_files'
                    ;;
                token)
                    _arguments '-secret[Signing secret]' '-user[User id]' '-tenant[Tenant id]' '-role[Role]' '-ttl[Lifetime]'
                    ;;
                audit)
                    _arguments '-url[Server URL]' '-token[Bearer token]' '-limit[Entries]' '-timeout[Timeout]'
                    ;;
                stock)
                    _arguments '-url[Server URL]' '-token[Bearer token]' '-product[Product id]' '-delta[Quantity]' '-reason[Reason]' '-timeout[Timeout]'
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_bizhub "$@"
`

// FishCompletion is the fish completion script.
const FishCompletion = `# Fish completion for bizhub

complete -c bizhub -f -n "__fish_use_subcommand" -a "serve" -d "Run the HTTP server"
complete -c bizhub -f -n "__fish_use_subcommand" -a "migrate" -d "Apply database migrations"
complete -c bizhub -f -n "__fish_use_subcommand" -a "token" -d "Sign an access token"
complete -c bizhub -f -n "__fish_use_subcommand" -a "audit" -d "Show recent audit entries"
complete -c bizhub -f -n "__fish_use_subcommand" -a "stock" -d "Adjust product stock"
complete -c bizhub -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion"

complete -c bizhub -f -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell string) error {
	var script string

	switch shell {
	case "bash":
		script = BashCompletion
	case "zsh":
		script = ZshCompletion
	case "fish":
		script = FishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}

	_, err := io.WriteString(w, script)
	return err
}
