package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTranscripts struct {
	mock.Mock
}

func (m *mockTranscripts) FetchTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	args := m.Called(ctx, videoID)
	tr, _ := args.Get(0).(*Transcript)
	return tr, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func helloTranscript(id string) *Transcript {
	return &Transcript{
		VideoID:  id,
		Title:    "Greeting",
		Segments: []Segment{{Text: "Hello", Start: 0, Duration: 1}, {Text: "world", Start: 1, Duration: 1}},
	}
}

func TestPipelineRun(t *testing.T) {
	tp := &mockTranscripts{}
	g := &mockGenerator{}
	tp.On("FetchTranscript", mock.Anything, "abc").Return(helloTranscript("abc"), nil)
	g.On("Generate", mock.Anything, BuildSummaryPrompt("Hello world")).
		Return("â€¢ Point one\nPoint two", nil)

	p := NewPipeline(Config{RequestTimeout: time.Minute}, tp, g)
	out, err := p.Run(context.Background(), "https://www.youtube.com/watch?v=abc&t=10")
	require.NoError(t, err)

	assert.Equal(t, "abc", out.VideoID)
	assert.Equal(t, "Greeting", out.Title)
	assert.Equal(t, "â€¢ Point one\nPoint two", out.Raw)
	assert.Equal(t, ">  * Point one\n> Point two", out.Markdown)
	tp.AssertExpectations(t)
	g.AssertExpectations(t)
}

func TestPipelineShortLink(t *testing.T) {
	tp := &mockTranscripts{}
	g := &mockGenerator{}
	tp.On("FetchTranscript", mock.Anything, "xyz").Return(&Transcript{Segments: []Segment{{Text: "hi"}}}, nil)
	g.On("Generate", mock.Anything, mock.AnythingOfType("string")).Return("done", nil)

	out, err := NewPipeline(Config{}, tp, g).Run(context.Background(), "https://youtu.be/xyz?si=q")
	require.NoError(t, err)
	assert.Equal(t, "xyz", out.VideoID, "provider left the id empty, pipeline fills it in")
	assert.Equal(t, "> done", out.Markdown)
}

func TestPipelineInvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no marker", "https://example.com/video"},
		{"empty watch id", "https://www.youtube.com/watch?v="},
		{"empty short id", "https://youtu.be/"},
		{"empty", ""},
		{"whitespace only", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := &mockTranscripts{}
			g := &mockGenerator{}

			out, err := NewPipeline(Config{}, tp, g).Run(context.Background(), tt.url)
			assert.Nil(t, out)
			require.ErrorIs(t, err, ErrInvalidURL)
			assert.Equal(t, "Invalid YouTube URL. Please provide a valid URL.", ErrorMessage(err))
			tp.AssertNotCalled(t, "FetchTranscript", mock.Anything, mock.Anything)
			g.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestPipelineTranscriptFailure(t *testing.T) {
	tp := &mockTranscripts{}
	g := &mockGenerator{}
	tp.On("FetchTranscript", mock.Anything, "abc").Return(nil, errors.New("TranscriptsDisabled"))

	out, err := NewPipeline(Config{}, tp, g).Run(context.Background(), "https://www.youtube.com/watch?v=abc")
	assert.Nil(t, out)

	var pe *ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageTranscript, pe.Stage)
	assert.Equal(t, "An error occurred: TranscriptsDisabled", ErrorMessage(err))
	g.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestPipelineGeneratorFailure(t *testing.T) {
	tp := &mockTranscripts{}
	g := &mockGenerator{}
	tp.On("FetchTranscript", mock.Anything, "abc").Return(helloTranscript("abc"), nil)
	g.On("Generate", mock.Anything, mock.Anything).Return("", &StatusError{StatusCode: 403, Body: "API key not valid"})

	rendered := metrics.SummariesRendered.Load()
	out, err := NewPipeline(Config{}, tp, g).Run(context.Background(), "https://youtube.com/watch?v=abc")
	assert.Nil(t, out)

	var pe *ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageSummarize, pe.Stage)
	assert.Equal(t, "An error occurred: HTTP Forbidden: API key not valid", ErrorMessage(err))
	assert.Equal(t, rendered, metrics.SummariesRendered.Load())
}

func TestPipelineTimeout(t *testing.T) {
	tp := &mockTranscripts{}
	g := &mockGenerator{}
	tp.On("FetchTranscript", mock.Anything, "abc").Return(nil, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		})

	_, err := NewPipeline(Config{RequestTimeout: 10 * time.Millisecond}, tp, g).
		Run(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, strings.HasPrefix(ErrorMessage(err), "An error occurred: "))
}

func TestPipelineTranscriptOnly(t *testing.T) {
	tp := &mockTranscripts{}
	tp.On("FetchTranscript", mock.Anything, "abc").Return(helloTranscript("abc"), nil)

	tr, err := NewPipeline(Config{}, tp, &mockGenerator{}).Transcript(context.Background(), "https://youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", tr.Text())
}

func TestPipelineRunKeepsCause(t *testing.T) {
	cause := errors.New("TranscriptsDisabled")
	tp := &mockTranscripts{}
	tp.On("FetchTranscript", mock.Anything, "abc").Return(nil, cause)

	out, err := NewPipeline(Config{}, tp, &mockGenerator{}).Run(context.Background(), "https://youtu.be/abc")
	assert.Nil(t, out)
	require.ErrorIs(t, err, cause)

	out, err = NewPipeline(Config{}, tp, &mockGenerator{}).Run(context.Background(), "https://example.com")
	assert.Nil(t, out)
	require.ErrorIs(t, err, ErrInvalidURL)
}
