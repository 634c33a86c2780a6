package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	calls  int
	result *entities.UploadResult
	err    error
}

func (f *fakeUploader) UploadPrescription(_ context.Context, _ string, _ io.Reader) (*entities.UploadResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeBulk struct {
	calls     int
	lastNames []string
	entries   []entities.BulkEntry
	err       error
}

func (f *fakeBulk) BulkSearch(_ context.Context, names []string) ([]entities.BulkEntry, error) {
	f.calls++
	f.lastNames = append([]string(nil), names...)
	return f.entries, f.err
}

type fakeSearcher struct {
	calls        int
	lastName     string
	lastLocation string
	result       *entities.SearchResult
	err          error
}

func (f *fakeSearcher) SearchMedicines(_ context.Context, name, location string) (*entities.SearchResult, error) {
	f.calls++
	f.lastName = name
	f.lastLocation = location
	return f.result, f.err
}

type fakeTokens struct {
	token string
}

func (f *fakeTokens) Token() (string, bool) {
	return f.token, f.token != ""
}

func uploadOK(names ...string) *entities.UploadResult {
	return &entities.UploadResult{StatusCode: 200, Message: "ok", AnalysedMedicines: names}
}

func TestSelectFileRejectsNonImage(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Paracetamol")}
	s := NewUploadSession(uploader, &fakeBulk{})

	err := s.SelectFile(context.Background(), "report.pdf", "application/pdf", strings.NewReader("data"))

	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidFileType, errs.KindOf(err))
	assert.Equal(t, StatusIdle, s.Status())
	assert.Equal(t, 0, uploader.calls, "no upload call for a rejected file")
	assert.Empty(t, s.Snapshot().FileName)
}

func TestSelectFileSuccessStoresNamesVerbatim(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Paracetamol 500mg", "IBUPROFEN")}
	s := NewUploadSession(uploader, &fakeBulk{})

	err := s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img"))

	require.NoError(t, err)
	assert.Equal(t, 1, uploader.calls, "exactly one upload call per accepted file")
	assert.Equal(t, StatusAwaitingConfirmation, s.Status())
	assert.Equal(t, []string{"Paracetamol 500mg", "IBUPROFEN"}, s.Snapshot().ExtractedNames)
}

func TestSelectFileEmptyExtractionFails(t *testing.T) {
	tests := []struct {
		name   string
		result *entities.UploadResult
	}{
		{"no names", uploadOK()},
		{"non-200 status", &entities.UploadResult{StatusCode: 422, AnalysedMedicines: []string{"X"}}},
		{"nil result", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewUploadSession(&fakeUploader{result: tt.result}, &fakeBulk{})

			err := s.SelectFile(context.Background(), "rx.png", "image/png", strings.NewReader("img"))

			require.Error(t, err)
			assert.Equal(t, errs.KindExtractionEmpty, errs.KindOf(err))
			assert.Equal(t, StatusFailed, s.Status())
		})
	}
}

func TestSelectFileTransportErrorKeepsFile(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("connection refused")}
	s := NewUploadSession(uploader, &fakeBulk{})

	err := s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img"))

	require.Error(t, err)
	assert.Equal(t, errs.KindUploadTransportError, errs.KindOf(err))
	assert.Equal(t, StatusFailed, s.Status())
	assert.Equal(t, "rx.jpg", s.Snapshot().FileName, "the selection survives for retry")
}

func TestSelectFileClearsPreviousResults(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Aspirin")}
	bulk := &fakeBulk{entries: []entities.BulkEntry{{}}}
	s := NewUploadSession(uploader, bulk)

	require.NoError(t, s.SelectFile(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x")))
	require.NoError(t, s.ConfirmExtraction(context.Background()))
	require.Equal(t, StatusCompleted, s.Status())

	uploader.result = uploadOK("Metformin")
	require.NoError(t, s.SelectFile(context.Background(), "b.jpg", "image/jpeg", strings.NewReader("y")))

	snap := s.Snapshot()
	assert.Equal(t, StatusAwaitingConfirmation, snap.Status)
	assert.Equal(t, []string{"Metformin"}, snap.ExtractedNames)
	assert.Empty(t, snap.Results, "old results are gone after a new selection")
}

func TestConfirmExtractionSendsAllNamesInOneRequest(t *testing.T) {
	names := []string{"Paracetamol", "Ibuprofen", "Amoxicillin"}
	uploader := &fakeUploader{result: uploadOK(names...)}
	bulk := &fakeBulk{entries: make([]entities.BulkEntry, len(names))}
	s := NewUploadSession(uploader, bulk)

	require.NoError(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	require.NoError(t, s.ConfirmExtraction(context.Background()))

	assert.Equal(t, 1, bulk.calls, "all names travel in a single bulk request")
	assert.Equal(t, names, bulk.lastNames)
	assert.Equal(t, StatusCompleted, s.Status())
}

func TestConfirmExtractionAttachesNamesPositionally(t *testing.T) {
	price := "12.50"
	uploader := &fakeUploader{result: uploadOK("Paracetamol", "Ibuprofen")}
	bulk := &fakeBulk{entries: []entities.BulkEntry{
		{
			BuyLinks:         []entities.BuyLink{{Site: "pharma.example", Title: "Paracetamol 500", URL: "https://pharma.example/p", Price: &price}},
			AlternativeNames: []string{"Acetaminophen"},
		},
		{
			AlternativeNames: []string{"Advil", "Nurofen"},
		},
	}}
	s := NewUploadSession(uploader, bulk)

	require.NoError(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	require.NoError(t, s.ConfirmExtraction(context.Background()))

	results := s.Snapshot().Results
	require.Len(t, results, 2)
	assert.Equal(t, "Paracetamol", results[0].MedicineName)
	assert.Equal(t, []string{"Acetaminophen"}, results[0].AlternativeNames)
	require.Len(t, results[0].BuyLinks, 1)
	assert.Equal(t, "pharma.example", results[0].BuyLinks[0].Site)
	assert.Equal(t, "Ibuprofen", results[1].MedicineName)
	assert.Equal(t, []string{"Advil", "Nurofen"}, results[1].AlternativeNames)
}

func TestConfirmExtractionLengthMismatchFails(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Paracetamol", "Ibuprofen")}
	bulk := &fakeBulk{entries: []entities.BulkEntry{{}}}
	s := NewUploadSession(uploader, bulk)

	require.NoError(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	err := s.ConfirmExtraction(context.Background())

	require.Error(t, err)
	assert.Equal(t, errs.KindResultMismatch, errs.KindOf(err))
	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, []string{"Paracetamol", "Ibuprofen"}, snap.ExtractedNames, "names are retained for retry")
	assert.Empty(t, snap.Results)
}

func TestConfirmExtractionFailureRetainsNames(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Paracetamol")}
	bulk := &fakeBulk{err: errors.New("gateway timeout")}
	s := NewUploadSession(uploader, bulk)

	require.NoError(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	err := s.ConfirmExtraction(context.Background())

	require.Error(t, err)
	assert.Equal(t, errs.KindBulkSearchError, errs.KindOf(err))
	assert.Equal(t, []string{"Paracetamol"}, s.Snapshot().ExtractedNames)
}

// flakyBulk fails a fixed number of calls before succeeding.
type flakyBulk struct {
	fakeBulk
	failures int
}

func (f *flakyBulk) BulkSearch(ctx context.Context, names []string) ([]entities.BulkEntry, error) {
	if f.calls < f.failures {
		f.calls++
		return nil, errors.New("gateway timeout")
	}
	return f.fakeBulk.BulkSearch(ctx, names)
}

func TestConfirmExtractionRetriesAfterBulkFailure(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Paracetamol")}
	bulk := &flakyBulk{fakeBulk: fakeBulk{entries: []entities.BulkEntry{{}}}, failures: 1}
	s := NewUploadSession(uploader, bulk)

	require.NoError(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	err := s.ConfirmExtraction(context.Background())
	require.Error(t, err)
	require.Equal(t, StatusFailed, s.Status())

	// The names survived, so a second confirmation reaches the backend
	require.NoError(t, s.ConfirmExtraction(context.Background()))

	assert.Equal(t, 2, bulk.calls)
	snap := s.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "Paracetamol", snap.Results[0].MedicineName)
	assert.Nil(t, snap.Error, "the failure is cleared by the successful retry")
}

func TestConfirmExtractionRetriesAfterMismatch(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Paracetamol", "Ibuprofen")}
	bulk := &fakeBulk{entries: []entities.BulkEntry{{}}}
	s := NewUploadSession(uploader, bulk)

	require.NoError(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	err := s.ConfirmExtraction(context.Background())
	require.Error(t, err)
	require.Equal(t, errs.KindResultMismatch, errs.KindOf(err))

	bulk.entries = []entities.BulkEntry{{}, {}}
	require.NoError(t, s.ConfirmExtraction(context.Background()))

	assert.Equal(t, 2, bulk.calls)
	assert.Equal(t, StatusCompleted, s.Status())
}

func TestConfirmExtractionNotRetriableAfterUploadFailure(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("connection refused")}
	bulk := &fakeBulk{}
	s := NewUploadSession(uploader, bulk)

	require.Error(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	require.Equal(t, StatusFailed, s.Status())

	// There are no names to confirm; the session needs a new upload
	require.NoError(t, s.ConfirmExtraction(context.Background()))
	assert.Equal(t, 0, bulk.calls)
	assert.Equal(t, StatusFailed, s.Status())
}

func TestConfirmExtractionNoOpOutsideAwaiting(t *testing.T) {
	bulk := &fakeBulk{}
	s := NewUploadSession(&fakeUploader{}, bulk)

	require.NoError(t, s.ConfirmExtraction(context.Background()))
	assert.Equal(t, 0, bulk.calls)
	assert.Equal(t, StatusIdle, s.Status())
}

func TestCancelExtractionResetsToIdle(t *testing.T) {
	uploader := &fakeUploader{result: uploadOK("Paracetamol")}
	s := NewUploadSession(uploader, &fakeBulk{})

	require.NoError(t, s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	require.Equal(t, StatusAwaitingConfirmation, s.Status())

	s.CancelExtraction()

	snap := s.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Empty(t, snap.FileName)
	assert.Empty(t, snap.ExtractedNames)
	assert.Empty(t, snap.Results)
	assert.Nil(t, snap.Error)
}

func TestSearchBlankQueryIsNoOp(t *testing.T) {
	searcher := &fakeSearcher{}
	s := NewSearchSession(searcher, &fakeTokens{token: "tok"})

	for _, q := range []string{"", "   ", "\t\n"} {
		result, err := s.Search(context.Background(), q, "")
		require.NoError(t, err)
		assert.Nil(t, result)
	}
	assert.Equal(t, 0, searcher.calls, "blank queries never reach the network")
}

func TestSearchWithoutTokenFailsBeforeNetwork(t *testing.T) {
	searcher := &fakeSearcher{}
	s := NewSearchSession(searcher, &fakeTokens{})

	_, err := s.Search(context.Background(), "Paracetamol", "")

	require.Error(t, err)
	assert.Equal(t, errs.KindAuthenticationRequired, errs.KindOf(err))
	assert.Equal(t, 0, searcher.calls)
}

func TestSearchStoresFullResult(t *testing.T) {
	summary := strings.Repeat("Paracetamol and Ibuprofen differ in mechanism. ", 40)
	searcher := &fakeSearcher{result: &entities.SearchResult{
		Query:             "Paracetamol",
		PrimaryMedicine:   entities.Medicine{Name: "Paracetamol"},
		SimilarMedicines:  []entities.Medicine{{Name: "Ibuprofen"}},
		Disclaimer:        "Not medical advice.",
		RetrievedAt:       "2026-08-30T10:00:00Z",
		ComparisonSummary: summary,
	}}
	s := NewSearchSession(searcher, &fakeTokens{token: "tok"})

	result, err := s.Search(context.Background(), "  Paracetamol  ", "Pune, Maharashtra")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Paracetamol", searcher.lastName, "query is trimmed before sending")
	assert.Equal(t, "Pune, Maharashtra", searcher.lastLocation)
	assert.Equal(t, summary, result.ComparisonSummary, "the summary is stored whole")
	assert.Equal(t, result, s.LastResult())
}

func TestSearchFailurePreservesQuery(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("backend unavailable")}
	s := NewSearchSession(searcher, &fakeTokens{token: "tok"})

	_, err := s.Search(context.Background(), "Ibuprofen", "")

	require.Error(t, err)
	assert.Equal(t, errs.KindSearchRequestError, errs.KindOf(err))
	assert.Equal(t, "Ibuprofen", s.LastQuery())
}

// gatedUploader blocks every upload until released, signalling when the
// call has started.
type gatedUploader struct {
	started chan struct{}
	release chan struct{}
	result  *entities.UploadResult
}

func (g *gatedUploader) UploadPrescription(_ context.Context, _ string, _ io.Reader) (*entities.UploadResult, error) {
	close(g.started)
	<-g.release
	return g.result, nil
}

func TestSelectFileDiscardsResponseAfterCancel(t *testing.T) {
	uploader := &gatedUploader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  uploadOK("Paracetamol"),
	}
	s := NewUploadSession(uploader, &fakeBulk{})

	done := make(chan error, 1)
	go func() {
		done <- s.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img"))
	}()

	<-uploader.started
	s.CancelExtraction()
	close(uploader.release)

	require.NoError(t, <-done)
	snap := s.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status, "the late upload response must not revive the session")
	assert.Empty(t, snap.ExtractedNames)
	assert.Empty(t, snap.FileName)
}

// gatedSearcher blocks until released, like gatedUploader.
type gatedSearcher struct {
	started chan struct{}
	release chan struct{}
	result  *entities.SearchResult
}

func (g *gatedSearcher) SearchMedicines(_ context.Context, _, _ string) (*entities.SearchResult, error) {
	close(g.started)
	<-g.release
	return g.result, nil
}

func TestSearchDiscardsResponseAfterReset(t *testing.T) {
	searcher := &gatedSearcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  &entities.SearchResult{Query: "Paracetamol"},
	}
	s := NewSearchSession(searcher, &fakeTokens{token: "tok"})

	type outcome struct {
		result *entities.SearchResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.Search(context.Background(), "Paracetamol", "")
		done <- outcome{result, err}
	}()

	<-searcher.started
	s.Reset()
	close(searcher.release)

	got := <-done
	require.NoError(t, got.err)
	assert.Nil(t, got.result, "a response from before the reset is dropped")
	assert.Nil(t, s.LastResult())
	assert.Empty(t, s.LastQuery())
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(&fakeUploader{result: uploadOK("A")}, &fakeBulk{})

	s := r.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, r.Count())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Get("01JUNKJUNKJUNKJUNKJUNKJUNK")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	r.Remove(s.ID)
	assert.Equal(t, 0, r.Count())
}

func TestRegistryClearDropsEverything(t *testing.T) {
	r := NewRegistry(&fakeUploader{result: uploadOK("A")}, &fakeBulk{})

	live := r.Create()
	r.Create()
	require.Equal(t, 2, r.Count())

	removed := r.Clear()

	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, r.Count())
	_, err := r.Get(live.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestRegistrySweepDropsOnlyTerminalSessions(t *testing.T) {
	r := NewRegistry(&fakeUploader{result: uploadOK("A")}, &fakeBulk{entries: []entities.BulkEntry{{}}})

	idle := r.Create()
	done := r.Create()
	require.NoError(t, done.SelectFile(context.Background(), "rx.jpg", "image/jpeg", strings.NewReader("img")))
	require.NoError(t, done.ConfirmExtraction(context.Background()))

	removed := r.Sweep(0)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Count())
	_, err := r.Get(idle.ID)
	assert.NoError(t, err)
}
