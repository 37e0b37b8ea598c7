package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
)

// Supervise runs executable and relays its JSON log lines to stdout. Anything that
// follows a panic header is collected and reported in one fatal entry when the child
// exits. Supervise exits with the child's exit code.
func Supervise(executable string, arg ...string) {
	supervisorLogger := NewLogger("Supervisor")
	defer recoverFatal(supervisorLogger)

	r, w, err := os.Pipe()
	if err != nil {
		supervisorLogger.Fatal().Err(err).Msg("Could not create pipe for logs")
	}

	cmd := exec.Command(executable, arg...)
	cmd.Stderr = w
	cmd.Stdout = os.Stdout
	if err = cmd.Start(); err != nil {
		supervisorLogger.Fatal().Err(err).Str("executable", executable).Msg("Could not start child process")
	}
	supervisorLogger.Info().Int("pid", cmd.Process.Pid).Strs("args", arg).Msg("Child process started")

	exitCodeCh := make(chan int, 1)
	go func() {
		defer recoverFatal(supervisorLogger)
		exitCodeCh <- exitCode(cmd.Wait())
		// unblocks the relay once the child is gone
		w.Close()
	}()

	relay := newLogRelay(os.Stdout, supervisorLogger)
	if err := relay.copy(r); err != nil {
		supervisorLogger.Error().Err(err).Msg("Could not read child logs")
	}

	code := <-exitCodeCh
	if code == 0 {
		supervisorLogger.Info().Msg("Child process exited")
		os.Exit(0)
	}
	supervisorLogger.WithLevel(zerolog.FatalLevel).
		Err(errors.New(relay.panicLogs())).
		Int("exit_code", code).
		Msg("Child process failed")
	os.Exit(code)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

type logRelay struct {
	out       io.Writer
	logger    zerolog.Logger
	panicking bool
	panicBuf  strings.Builder
}

func newLogRelay(out io.Writer, logger zerolog.Logger) *logRelay {
	return &logRelay{out: out, logger: logger}
}

func (l *logRelay) copy(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		l.handle(scanner.Bytes())
	}
	return scanner.Err()
}

func (l *logRelay) handle(line []byte) {
	if !l.panicking && strings.HasPrefix(string(line), "panic") {
		l.panicking = true
	}
	switch {
	case len(line) == 0:
	case l.panicking:
		l.panicBuf.Write(line)
		l.panicBuf.WriteByte('\n')
	case isJSON(line):
		l.out.Write(line)
		l.out.Write([]byte{'\n'})
	default:
		l.logger.Warn().Str("line", string(line)).Msg("Child wrote a line that is not JSON")
	}
}

func (l *logRelay) panicLogs() string {
	return l.panicBuf.String()
}

func recoverFatal(supervisorLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	supervisorLogger.Fatal().
		Str("error", fmt.Sprint(r)).
		Str("stack_trace", string(debug.Stack())).
		Msg("Supervisor panicked")
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
