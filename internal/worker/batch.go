package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/zkloci/internal/model"
)

// Answerer handles a single question. It never fails; degraded paths
// are reflected in the response itself.
type Answerer interface {
	HandleQuestion(ctx context.Context, question string) model.QueryResponse
}

// QuestionJob answers one question from a batch
type QuestionJob struct {
	Index    int
	Question string
	Answerer Answerer
	Limiter  *Limiter
	Scope    string
}

// Execute waits for the scope's rate budget and then answers the question
func (j *QuestionJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &QuestionResult{Index: j.Index, Question: j.Question}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Scope); err != nil {
			result.Error = fmt.Errorf("rate limit wait: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	resp := j.Answerer.HandleQuestion(ctx, j.Question)
	result.Response = &resp
	result.Duration = time.Since(start)
	return result
}

// QuestionResult is the outcome of one batch question
type QuestionResult struct {
	Index    int
	Question string
	Response *model.QueryResponse
	Duration time.Duration
	Error    error
}

// GetError returns the error from the question result
func (r *QuestionResult) GetError() error {
	return r.Error
}

// BatchProcessor answers many questions concurrently
type BatchProcessor struct {
	answerer    Answerer
	concurrency int
	limiter     *Limiter
	scope       string
}

// NewBatchProcessor creates a new batch processor. A nil limiter disables
// rate limiting; scope names the budget questions draw from.
func NewBatchProcessor(answerer Answerer, concurrency int, limiter *Limiter, scope string) *BatchProcessor {
	return &BatchProcessor{
		answerer:    answerer,
		concurrency: concurrency,
		limiter:     limiter,
		scope:       scope,
	}
}

// ProcessQuestions answers the questions and returns results in input order
func (b *BatchProcessor) ProcessQuestions(ctx context.Context, questions []string) []*QuestionResult {
	if len(questions) == 0 {
		return []*QuestionResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := make([]bool, len(questions))
	for i, q := range questions {
		submitted[i] = pool.Submit(&QuestionJob{
			Index:    i,
			Question: q,
			Answerer: b.answerer,
			Limiter:  b.limiter,
			Scope:    b.scope,
		})
	}

	results := pool.Wait()

	out := make([]*QuestionResult, 0, len(questions))
	seen := make([]bool, len(questions))
	for _, r := range results {
		switch res := r.(type) {
		case *QuestionResult:
			seen[res.Index] = true
			out = append(out, res)
		default:
			var pe *PanicError
			if errors.As(r.GetError(), &pe) {
				if job, ok := pe.Job.(*QuestionJob); ok {
					seen[job.Index] = true
					out = append(out, &QuestionResult{Index: job.Index, Question: job.Question, Error: pe})
				}
			}
		}
	}

	// Questions never queued or dropped by cancellation still get a row
	for i, q := range questions {
		if seen[i] {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = errors.New("question not processed")
		}
		if !submitted[i] {
			err = fmt.Errorf("question not submitted: %w", err)
		}
		out = append(out, &QuestionResult{Index: i, Question: q, Error: err})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ProcessFile reads questions from a file and answers them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QuestionResult, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return b.ProcessQuestions(ctx, questions), nil
}

// ReadQuestionsFromFile reads questions from a file (one per line)
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadQuestions(file)
}

// ReadQuestions reads one question per line, skipping blanks, # comments
// and repeated questions.
func ReadQuestions(r io.Reader) ([]string, error) {
	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			questions = append(questions, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}

	return questions, nil
}

// batchLine is one JSON line of batch output
type batchLine struct {
	Question   string               `json:"question"`
	Response   *model.QueryResponse `json:"response,omitempty"`
	Error      string               `json:"error,omitempty"`
	DurationMS int64                `json:"duration_ms"`
}

// WriteJSONLines writes one JSON object per result
func WriteJSONLines(w io.Writer, results []*QuestionResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		line := batchLine{
			Question:   r.Question,
			Response:   r.Response,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Error != nil {
			line.Error = r.Error.Error()
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write result %d: %w", r.Index, err)
		}
	}
	return nil
}
