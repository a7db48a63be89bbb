package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2dd4bf")).
		Bold(true).
		Render("O D O N T O")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Painel da clinica no terminal")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"odonto", "Abrir o painel (TUI interativo)"},
		{"odonto login", "Entrar com outra conta"},
		{"odonto logout", "Encerrar a sessao"},
		{"odonto --version", "Mostrar a versao"},
		{"odonto help", "Esta tela"},
	}

	fmt.Printf("\n  %s\n\n  %s\n\n  Comandos:\n", title, subtitle)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-18s", c.cmd)), descStyle.Render(c.desc))
	}
	env := descStyle.Render("Variaveis: ODONTO_API_URL, ODONTO_WS_URL, ODONTO_DIR, ODONTO_DEBUG (.env suportado)")
	fmt.Printf("\n  %s\n\n", env)
}
