package rewriter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// RewriteFile reads inPath in full, then writes the filtered lines to outPath,
// creating or truncating it. In dry-run mode outPath is never opened.
func (r *Rewriter) RewriteFile(ctx context.Context, inPath, outPath string) (result *Result, err error) {
	data, err := os.ReadFile(inPath) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", inPath, err)
	}
	lines := SplitLines(data)

	r.log.Debug().Str("input", inPath).Int("lines", len(lines)).Msg("input loaded")

	if r.dryRun {
		result, err = r.Rewrite(ctx, lines, io.Discard)
		if err != nil {
			return nil, err
		}
		result.Input, result.Output = inPath, outPath
		return result, nil
	}

	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) // #nosec G304 G302
	if err != nil {
		return nil, fmt.Errorf("creating output %s: %w", outPath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			result, err = nil, fmt.Errorf("closing output %s: %w", outPath, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	result, err = r.Rewrite(ctx, lines, bw)
	if err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flushing output %s: %w", outPath, err)
	}

	result.Input, result.Output = inPath, outPath
	return result, nil
}

// SplitLines splits data after every '\n', keeping the terminator on each
// line. A final line without a terminator is kept as is.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}

	lines := make([]string, 0, bytes.Count(data, []byte{'\n'})+1)
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, string(data))
			break
		}
		lines = append(lines, string(data[:i+1]))
		data = data[i+1:]
	}
	return lines
}
