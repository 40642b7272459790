package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cscrape/internal/domain"
	"cscrape/internal/record"
	"cscrape/internal/scrape"
	"cscrape/internal/verify"
)

const results = "CONFIG_NAME:arm32\r\n" +
	"51:INT:obj.enum('MY_ENUM')=0\r\n" +
	"52:EXP:obj.enum('UNKNOWN')=Exception(\"Missing enum 'enum:*:*:*:UNKNOWN'\",)\r\n" +
	"\r\n" +
	"TEST COMPLETED\r\n"

func TestResultsParser_Parse(t *testing.T) {
	res, err := NewResultsParser().Parse(results)
	require.NoError(t, err)
	assert.Equal(t, "arm32", res.ConfigName)
	assert.True(t, res.Completed())
	require.Len(t, res.Records, 2)
	assert.Equal(t, record.Record{Line: 51, Kind: record.KindInt, Expr: "obj.enum('MY_ENUM')", Value: "0"}, res.Records[0])
}

func TestResultsParser_NoConfigName(t *testing.T) {
	res, err := NewResultsParser().Parse("1:INT:1=1\nTEST COMPLETED\n")
	require.ErrorIs(t, err, ErrNoConfigName)
	assert.Len(t, res.Records, 1)
}

func TestResultsParser_Check(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		err     error
	}{
		{"missing file", nil, ErrNoResults},
		{"incomplete", ptr("CONFIG_NAME:arm32\n1:INT:1=1\n"), ErrIncomplete},
		{"marker needs its own line", ptr("CONFIG_NAME:arm32\nTEST COMPLETED"), ErrIncomplete},
		{"complete", ptr("CONFIG_NAME:arm32\n1:INT:1=1\nTEST COMPLETED\n"), nil},
		{"complete with CRLF", ptr("CONFIG_NAME:arm32\r\n1:INT:1=1\r\nTEST COMPLETED\r\n"), nil},
		{"complete fixture output", ptr(results), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != nil {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ResultsFile), []byte(*tt.content), 0o644))
			}
			err := NewResultsParser().Check(dir)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestResultsParser_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ResultsFile)

	_, err := NewResultsParser().ParseFile(path)
	require.ErrorIs(t, err, ErrNoResults)

	require.NoError(t, os.WriteFile(path, []byte(results), 0o644))
	res, err := NewResultsParser().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
}

func TestFailureParser(t *testing.T) {
	job := domain.Job{
		Simulator: domain.Simulator{Name: "gcc_arm32"},
		Fixture:   domain.Fixture{Name: "test_01", Dir: "/fixtures/test_01"},
	}
	rep := verify.NewChecker(scrape.New()).CheckAll(record.Parse("3:INT:obj.type_size('int')=16\n4:INT:1=1\n"))

	p := NewFailureParser()
	failures := p.ParseReport(job, "/fixtures/test_01/test.c", rep)
	require.Len(t, failures, 1)
	assert.Equal(t, domain.Failure{
		Job:       "gcc_arm32/test_01",
		Simulator: "gcc_arm32",
		Fixture:   "test_01",
		File:      "/fixtures/test_01/test.c",
		Line:      3,
		Kind:      "INT",
		Expr:      "obj.type_size('int')",
		Expected:  "16",
		Actual:    "32",
		Message:   "   3: eval(obj.type_size('int')) (32) = 16",
	}, failures[0])

	jobErr := p.ParseError(job, ErrIncomplete)
	assert.Equal(t, 0, jobErr.Line)
	assert.Equal(t, ErrIncomplete.Error(), jobErr.Message)

	failed := p.FailedJobs(&domain.RunOutput{Details: []domain.Failure{
		{Job: "a/x"}, {Job: "b/y", Resolved: true},
	}})
	assert.Equal(t, map[string]struct{}{"a/x": {}}, failed)
	assert.Empty(t, p.FailedJobs(nil))
}

func ptr(s string) *string { return &s }

func TestResultsParser_ParseFileWithoutConfigName(t *testing.T) {
	path := filepath.Join(t.TempDir(), ResultsFile)
	require.NoError(t, os.WriteFile(path, []byte("1:INT:1=1\n\nTEST COMPLETED\n"), 0o644))

	res, err := NewResultsParser().ParseFile(path)
	require.ErrorIs(t, err, ErrNoConfigName)
	require.NotNil(t, res)
	assert.Len(t, res.Records, 1)
	assert.True(t, res.Completed())
}
