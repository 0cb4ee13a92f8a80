package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: publish_and_comment
steps:
  - op: createUser
    as: ann
    args: {name: Ann, email: ann@example.com}
  - op: subscribePosts
    as: posts
  - op: createPost
    as: hello
    args: {title: Hello, body: world, published: true, author: $ann}
    expect:
      events:
        - {subscription: posts, mutation: CREATED, id: $hello}
assertions:
  - {type: count, collection: posts, count: 1}
`

const failingScenario = `
name: wrong_expectation
steps:
  - op: createUser
    args: {name: Ann, email: ann@example.com}
    expect:
      error: CONFLICT
`

const passingTrace = `[1] createUser ok {"id":"id-1","name":"Ann","email":"ann@example.com"}
[2] subscribePosts ok posts
[3] createPost ok {"id":"id-2","title":"Hello","body":"world","published":true,"author":"id-1"}
    posts <- CREATED {"id":"id-2","title":"Hello","body":"world","published":true,"author":"id-1"}
`

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
