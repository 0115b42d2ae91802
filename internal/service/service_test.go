package service

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filelens/internal/cleanup"
	"filelens/internal/config"
	"filelens/internal/export"
	"filelens/internal/fixture"
	"filelens/internal/processor"
	"filelens/internal/reader"
	"filelens/internal/report"
)

type recorder struct {
	mu       sync.Mutex
	channels []string
	events   []cleanup.Progress
}

func (r *recorder) Emit(channel string, event cleanup.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
	r.events = append(r.events, event)
}

func newService(t *testing.T, emitter Emitter) *Service {
	t.Helper()
	svc, err := New(config.Default(), emitter, nil)
	require.NoError(t, err)
	return svc
}

func officeValues(t *testing.T, rep *report.Report) map[string]string {
	t.Helper()
	values := map[string]string{}
	for _, title := range []string{reader.SectionOfficeCore, reader.SectionOfficeApp, reader.SectionOfficeCust} {
		section, ok := rep.Section(title)
		if !ok {
			continue
		}
		for _, entry := range section.Entries {
			values[title+"/"+entry.Label] = entry.Value
		}
	}
	return values
}

func TestEditAuthorThenAnalyze(t *testing.T) {
	svc := newService(t, nil)
	path := fixture.Write(t, t.TempDir(), "plan.docx", fixture.Docx())

	before, err := svc.AnalyzeFile(path, false)
	require.NoError(t, err)
	field, err := processor.ParseOfficeField("author")
	require.NoError(t, err)
	require.NoError(t, svc.EditOfficeMetadata(path, field, "X"))

	after, err := svc.AnalyzeFile(path, false)
	require.NoError(t, err)

	want := officeValues(t, before)
	want[reader.SectionOfficeCore+"/Creator"] = "X"
	assert.Equal(t, want, officeValues(t, after))
}

func TestCleanupScenario(t *testing.T) {
	dir := t.TempDir()
	gps := fixture.JPEG(fixture.ExifSegment(fixture.CameraExif()))
	for _, name := range []string{"one.jpg", "two.jpg", "three.jpg"} {
		fixture.Write(t, dir, name, gps)
	}
	fixture.Write(t, dir, "a.docx", fixture.Docx())
	fixture.Write(t, dir, "b.docx", fixture.Docx())
	fixture.Write(t, dir, "readme.txt", []byte("hello"))

	rec := &recorder{}
	svc := newService(t, rec)

	summary, err := svc.AnalyzeDirectory(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.TotalFiles)
	assert.Equal(t, 3, summary.ImagesCount)
	assert.Equal(t, 2, summary.OfficeCount)
	assert.Equal(t, []report.ExtensionCount{
		{Extension: "jpg", Count: 3},
		{Extension: "docx", Count: 2},
		{Extension: "txt", Count: 1},
	}, summary.ExtensionCounts)

	for _, name := range []string{"one.jpg", "two.jpg", "three.jpg"} {
		rep, err := svc.AnalyzeFile(filepath.Join(dir, name), false)
		require.NoError(t, err)
		assert.NotEmpty(t, rep.Risks, name)
		section, ok := rep.Section(reader.SectionEXIF)
		require.True(t, ok, name)
		_, found := section.Lookup("GPS Position")
		assert.True(t, found, name)
	}

	listed, err := svc.ListCleanupFiles(dir, false, cleanup.FilterAll)
	require.NoError(t, err)
	assert.Len(t, listed, 6)

	job, err := svc.StartCleanup(dir, false, cleanup.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, 6, job.Total)
	assert.Equal(t, cleanup.Finished{Successes: 6}, job.Wait())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 2*6+2)
	for _, channel := range rec.channels {
		assert.Equal(t, ProgressChannel, channel)
	}
	assert.Equal(t, cleanup.Started{Total: 6}, rec.events[0])
	assert.Equal(t, cleanup.Finished{Successes: 6}, rec.events[len(rec.events)-1])

	rep, err := svc.AnalyzeFile(filepath.Join(dir, "two.jpg"), false)
	require.NoError(t, err)
	assert.Empty(t, rep.Risks)
	if section, ok := rep.Section(reader.SectionEXIF); ok {
		_, found := section.Lookup("GPS Position")
		assert.False(t, found)
	}
}

func TestStartCleanupFilesImagesOnly(t *testing.T) {
	dir := t.TempDir()
	jpg := fixture.Write(t, dir, "a.jpg", fixture.JPEG(fixture.CommentSegment("hi")))
	docx := fixture.Write(t, dir, "b.docx", fixture.Docx())
	original, err := os.ReadFile(docx)
	require.NoError(t, err)

	svc := newService(t, nil)
	job, err := svc.StartCleanupFiles([]string{docx, jpg}, cleanup.FilterImages)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Total)
	assert.Equal(t, cleanup.Finished{Successes: 1}, job.Wait())

	after, err := os.ReadFile(docx)
	require.NoError(t, err)
	assert.Equal(t, original, after)
}

func TestRemoveMetadataPDFUnsupported(t *testing.T) {
	svc := newService(t, nil)
	path := fixture.Write(t, t.TempDir(), "doc.pdf", fixture.PDF(map[string]string{"Author": "Jane"}, false))

	_, err := svc.RemoveMetadata(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExportReport(t *testing.T) {
	svc := newService(t, nil)
	dir := t.TempDir()
	src := fixture.Write(t, dir, "photo.jpg", fixture.JPEG())
	rep, err := svc.AnalyzeFile(src, false)
	require.NoError(t, err)

	var suggested string
	path, ok, err := svc.ExportReport(rep, export.FormatTXT, "", func(name string) (string, bool) {
		suggested = name
		return filepath.Join(dir, "out"), true
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "photo-metadata.txt", suggested)
	assert.Equal(t, filepath.Join(dir, "out.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Metadata report")

	path, ok, err = svc.ExportReport(rep, export.FormatPDF, "custom", func(name string) (string, bool) {
		suggested = name
		return "", false
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.Equal(t, "custom.pdf", suggested)
}

func TestNewRejectsBadTaxonomy(t *testing.T) {
	cfg := config.Default()
	cfg.Risk.TaxonomyFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}
