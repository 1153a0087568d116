package ocr

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-extract/internal/config"
	"github.com/sells-group/credit-extract/internal/model"
)

// tesseractCeiling caps basic OCR confidence; tesseract word confidence is
// optimistic on noisy scans.
const tesseractCeiling = 75.0

// Runner executes an external command with stdin and returns its output.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args, feeding stdin.
func (ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// TesseractEngine is the local basic image OCR tier. It reads raster images
// only.
type TesseractEngine struct {
	runner  Runner
	binPath string
	lang    string
	psm     int
}

// NewTesseract creates a TesseractEngine. Empty settings fall back to
// "tesseract", "eng" and page segmentation mode 3.
func NewTesseract(runner Runner, cfg config.BasicOCRConfig) *TesseractEngine {
	t := &TesseractEngine{runner: runner, binPath: cfg.TesseractPath, lang: cfg.Lang, psm: cfg.PSM}
	if t.binPath == "" {
		t.binPath = "tesseract"
	}
	if t.lang == "" {
		t.lang = "eng"
	}
	if t.psm <= 0 {
		t.psm = 3
	}
	return t
}

func (t *TesseractEngine) Method() model.Method { return model.MethodBasicImageOCR }

func (t *TesseractEngine) Supports(kind model.MimeKind) bool { return kind.IsImage() }

// Extract runs tesseract in TSV mode and rebuilds the text from word rows, so
// one invocation yields both text and word confidence.
func (t *TesseractEngine) Extract(ctx context.Context, doc model.DocumentInput) (*model.ExtractionResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	args := []string{"stdin", "stdout", "-l", t.lang, "--psm", strconv.Itoa(t.psm), "tsv"}
	stdout, stderr, err := t.runner.Run(ctx, doc.Bytes(), t.binPath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ocr: tesseract interrupted")
		}
		return nil, eris.Wrapf(err, "ocr: tesseract failed: %s", strings.TrimSpace(string(stderr)))
	}

	text, conf, words := parseTSV(stdout)
	if words == 0 || strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return &model.ExtractionResult{
		Text:             text,
		PageCount:        1,
		NativeConfidence: math.Min(conf, tesseractCeiling),
		Method:           t.Method(),
	}, nil
}

// columnGap separates label and value columns the way the parser splits them.
const columnGap = "   "

// parseTSV rebuilds line-broken text from tesseract TSV output and returns
// the mean confidence of recognized words. A new block starts after a blank
// line, and a wide horizontal gap inside a line becomes a column break of
// three spaces.
//
// Columns: level page_num block_num par_num line_num word_num left top width
// height conf text.
func parseTSV(out []byte) (string, float64, int) {
	var (
		b                  strings.Builder
		lastBlock, lastKey string
		prevRight          int
		sum                float64
		words              int
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		word := strings.TrimSpace(cols[11])
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 || word == "" {
			continue
		}
		left, _ := strconv.Atoi(cols[6])
		width, _ := strconv.Atoi(cols[8])
		height, _ := strconv.Atoi(cols[9])

		block := cols[1] + "." + cols[2]
		key := block + "." + cols[3] + "." + cols[4]
		switch {
		case lastKey == "":
		case block != lastBlock:
			b.WriteString("\n\n")
		case key != lastKey:
			b.WriteByte('\n')
		case height > 0 && left-prevRight >= 2*height:
			b.WriteString(columnGap)
		default:
			b.WriteByte(' ')
		}
		lastBlock, lastKey = block, key
		prevRight = left + width
		b.WriteString(word)
		sum += conf
		words++
	}
	if words == 0 {
		return "", 0, 0
	}
	return b.String(), sum / float64(words), words
}
