package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/vicharanashala/ajrasakha-sub003/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
