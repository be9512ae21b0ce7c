package main

import (
	"os"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"

	"dompet/internal/cli"
	"dompet/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := cli.NewRootCmd(cli.OpenDatabase).Execute(); err != nil {
		pterm.Error.Println(capitalize(err.Error()))
		logger.Sync()
		os.Exit(1)
	}
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
