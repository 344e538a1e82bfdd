package driver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"
	gc "gopkg.in/check.v1"
)

func Test(t *testing.T) { gc.TestingT(t) }

type DriverSuite struct{}

var _ = gc.Suite(&DriverSuite{})

// memFS is a fake Loader/Writer pair backed by in-memory maps, so these
// tests never touch the real filesystem.
type memFS struct {
	files   map[string]string
	written map[string]string
}

func newMemFS(files map[string]string) *memFS {
	return &memFS{files: files, written: map[string]string{}}
}

func (m *memFS) load(path string) (string, error) {
	body, ok := m.files[path]
	if !ok {
		return "", &notFoundError{path: path}
	}
	return body, nil
}

func (m *memFS) write(path string, content []byte) error {
	m.written[path] = string(content)
	return nil
}

type notFoundError struct{ path string }

func (e *notFoundError) Error() string { return "no such file: " + e.path }

func (s *DriverSuite) TestRunRendersEveryPass(c *gc.C) {
	// `template` and `output` hold literal template content inline in
	// the document, matching main.cpp's
	// `template_data[ref("template")].string()` straight into
	// `Fmt::tokenize` — they are not paths loaded from disk.
	fs := newMemFS(map[string]string{
		"doc.yaml": "" +
			"name: World\n" +
			"templates:\n" +
			"  - template: \"<$ params.greeting $>, <$ name $>!\"\n" +
			"    output: \"out/<$ params.greeting $>.txt\"\n" +
			"    passes:\n" +
			"      - greeting: Hi\n" +
			"      - greeting: Hey\n",
	})

	stats, err := Run("doc.yaml", fs.load, fs.write)
	c.Assert(err, gc.IsNil)
	if stats.TemplatesFailed != 0 || stats.PassesFailed != 0 {
		c.Fatalf("unexpected failures: %# v", pretty.Formatter(stats))
	}
	c.Check(stats.Templates, gc.Equals, 1)
	c.Check(stats.Passes, gc.Equals, 2)

	want := map[string]string{
		"out/Hi.txt":  "Hi, World!",
		"out/Hey.txt": "Hey, World!",
	}
	if diff := cmp.Diff(want, fs.written); diff != "" {
		c.Fatalf("written files mismatch (-want +got):\n%s", diff)
	}
}

func (s *DriverSuite) TestRunDefaultsToSinglePassWithoutPasses(c *gc.C) {
	fs := newMemFS(map[string]string{
		"doc.yaml": "" +
			"name: World\n" +
			"templates:\n" +
			"  - template: \"Hello, <$ name $>!\"\n" +
			"    output: \"hello.txt\"\n",
	})

	stats, err := Run("doc.yaml", fs.load, fs.write)
	c.Assert(err, gc.IsNil)
	c.Check(stats.Passes, gc.Equals, 1)
	c.Check(fs.written["hello.txt"], gc.Equals, "Hello, World!")
}

func (s *DriverSuite) TestRunContinuesPastAFailingTemplate(c *gc.C) {
	fs := newMemFS(map[string]string{
		"doc.yaml": "" +
			"templates:\n" +
			"  - template: \"<$ missing $>\"\n" +
			"    output: \"out.txt\"\n" +
			"  - template: \"fine\"\n" +
			"    output: \"out.txt\"\n",
	})

	stats, err := Run("doc.yaml", fs.load, fs.write)
	c.Assert(err, gc.IsNil)
	c.Check(stats.Templates, gc.Equals, 2)
	c.Check(stats.TemplatesFailed, gc.Equals, 1)
	c.Check(fs.written["out.txt"], gc.Equals, "fine")
}

func (s *DriverSuite) TestRunStillLoadsFileInclusionsFromDisk(c *gc.C) {
	// Unlike `template`/`output`, a `<$ file "path" $>` tag inside a
	// template body does go through the Loader.
	fs := newMemFS(map[string]string{
		"doc.yaml": "" +
			"templates:\n" +
			"  - template: \"<$ file \\\"partial.tmpl\\\" $>!\"\n" +
			"    output: \"out.txt\"\n",
		"partial.tmpl": `Hello`,
	})

	stats, err := Run("doc.yaml", fs.load, fs.write)
	c.Assert(err, gc.IsNil)
	c.Check(stats.TemplatesFailed, gc.Equals, 0)
	c.Check(fs.written["out.txt"], gc.Equals, "Hello!")
}

func (s *DriverSuite) TestRunReportsMissingDocument(c *gc.C) {
	fs := newMemFS(nil)
	_, err := Run("missing.yaml", fs.load, fs.write)
	c.Assert(err, gc.NotNil)
}
