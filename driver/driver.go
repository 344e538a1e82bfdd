// Package driver reproduces original_source/src/main.cpp's generation
// loop on top of the fmtlang core: decode a document, build the root
// environment, and for every template entry render its body and its
// (itself templated) output path once per pass, writing the result
// through a Writer collaborator.
package driver

import (
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/HritikDutta/fmtlang"
)

var logger = loggo.GetLogger("fmtgen.driver")

// Loader and Writer are the narrow file-I/O collaborators spec.md §6
// names: load a file's bytes by path, write bytes to a path. The
// driver is the only layer that touches either; the core never does.
type Loader func(path string) (string, error)
type Writer func(path string, content []byte) error

// Stats summarizes one Run: counts of templates and passes attempted
// versus how many rendered (and wrote) cleanly.
type Stats struct {
	Templates       int
	TemplatesFailed int
	Passes          int
	PassesFailed    int
}

// Run decodes documentPath through load, builds the root environment,
// and processes every entry of its `templates` array: tokenize the
// entry's `template` and `output` string fields once (SPEC_FULL.md
// §4.2) — both are literal template content already present in the
// document, not paths to load, matching main.cpp's
// `template_data[ref("template")].string()` feeding `Fmt::tokenize`
// directly — then for each pass install `params`, render both, and
// write the template body's output to the rendered path. `load` is
// still used for the document itself and for any `<$ file "path" $>`
// inclusion inside a template body. A render failure on either body
// aborts the remaining passes of that template only — other templates
// still run — matching main.cpp's `break` out of the inner loop
// (SPEC_FULL.md §4.3).
func Run(documentPath string, load Loader, write Writer) (Stats, error) {
	var stats Stats

	raw, err := load(documentPath)
	if err != nil {
		return stats, errors.Annotatef(err, "loading document %q", documentPath)
	}

	root, err := fmtlang.LoadDocument(documentPath, []byte(raw))
	if err != nil {
		return stats, errors.Annotatef(err, "decoding document %q", documentPath)
	}

	specs, err := fmtlang.ExtractTemplates(root)
	if err != nil {
		return stats, errors.Annotate(err, "reading templates array")
	}

	env := fmtlang.PrepareEnvironment(root)
	cache := fmtlang.NewFileCache(fmtlang.TextLoader(load))

	for i, spec := range specs {
		stats.Templates++
		logger.Infof("templates[%d]: %d pass(es)", i, len(spec.Passes))

		if err := runTemplate(i, spec, env, cache, write, &stats); err != nil {
			stats.TemplatesFailed++
			logger.Errorf("templates[%d]: %v", i, err)
		}
	}

	return stats, nil
}

// runTemplate tokenizes the template body and the output-path body
// once, then drives every pass. Both bodies are the literal string
// content already decoded from the document's `template`/`output`
// fields (main.cpp reads `template_data[ref("template")].string()`
// straight into `Fmt::tokenize`, with no file load in between) — the
// only file reads are the top-level document load and any
// `<$ file "path" $>` inclusion served through cache, and the only
// write is the final render. An error aborts the remaining passes of this template but is
// returned (not fatal to the caller), per SPEC_FULL.md §4.3.
func runTemplate(templateIndex int, spec fmtlang.TemplateSpec, env fmtlang.Value, cache *fmtlang.FileCache, write Writer, stats *Stats) error {
	bodyContent := spec.Template
	bodyTokens, lexErr := fmtlang.Lex(bodyContent)
	if lexErr != nil {
		return errors.Annotatef(lexErr, "tokenizing template body")
	}

	outContent := spec.Output
	outTokens, lexErr := fmtlang.Lex(outContent)
	if lexErr != nil {
		return errors.Annotatef(lexErr, "tokenizing output-path template")
	}

	for i, pass := range spec.Passes {
		stats.Passes++
		fmtlang.PreparePass(env, pass)

		var bodyOut, pathOut strings.Builder
		bodyPass := &fmtlang.Pass{Tokens: bodyTokens, Env: env}
		pathPass := &fmtlang.Pass{Tokens: outTokens, Env: env}

		bodyOK, bodyErrs := fmtlang.Render(bodyContent, bodyPass, cache, &bodyOut)
		pathOK, pathErrs := fmtlang.Render(outContent, pathPass, cache, &pathOut)

		if !bodyOK || !pathOK {
			stats.PassesFailed++
			logDiagnostics(templateIndex, i, bodyErrs)
			logDiagnostics(templateIndex, i, pathErrs)
			return errors.Errorf("templates[%d] pass %d failed to render", templateIndex, i)
		}

		outputPath := pathOut.String()
		if err := write(outputPath, []byte(bodyOut.String())); err != nil {
			stats.PassesFailed++
			return errors.Annotatef(err, "writing %q (templates[%d] pass %d)", outputPath, templateIndex, i)
		}

		logger.Debugf("templates[%d] pass %d -> %q (%d bytes)", templateIndex, i, outputPath, bodyOut.Len())
	}

	return nil
}

func logDiagnostics(templateIndex, pass int, errs []error) {
	for _, err := range errs {
		logger.Warningf("templates[%d] pass %d: %v", templateIndex, pass, err)
		if fe, ok := err.(*fmtlang.Error); ok {
			fmtlang.PrintDiagnostic(logger.Criticalf, fe)
		}
	}
}
