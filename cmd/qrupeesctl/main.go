// Command qrupeesctl は運用ツールです。サーバーと同じ配線を使い、
// シェルから市場データの確認と登録キューの管理を行います。
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
