package main

import (
	"text2phenotype.com/ner/logger"
	"fmt"
	"os"
)

const usage = `usage: ner <command> [flags] [args]

commands:
  count      count n-grams and emissions of a tagged corpus
  group      replace rare words of a tagged corpus by their category
  tag        tag an untagged corpus with a counts file
  compare    score predicted tags against gold tags
  serve      tag documents from the task queue and the REST API
  supervise  run serve in a child process and relay its logs
`

type command func(args []string) error

var commands = map[string]command{
	"count":     runCount,
	"group":     runGroup,
	"tag":       runTag,
	"compare":   runCompare,
	"serve":     runServe,
	"supervise": runSupervise,
}

func main() {
	logger.SetupLogging()
	mainLogger := logger.NewLogger("Main")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err := run(os.Args[2:]); err != nil {
		mainLogger.Fatal().Caller().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}
