// Command tutorhub は講師予約APIサーバーを起動する。
//
//	tutorhub [serve]                 APIサーバーを起動する
//	tutorhub migrate [up|down|version]
//	tutorhub healthcheck             /health を確認する（Dockerヘルスチェック用）
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/tutorhub/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tutorhub: %v\n", err)
		os.Exit(1)
	}
}
