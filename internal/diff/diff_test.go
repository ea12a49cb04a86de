package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/app/service.py b/app/service.py
--- a/app/service.py
+++ b/app/service.py
@@ -1,3 +1,4 @@
 import os
+import logging

 def handler():
diff --git a/requirements.txt b/requirements.txt
--- a/requirements.txt
+++ b/requirements.txt
@@ -1,2 +1,3 @@
 fastapi==0.110.0
+requests==2.0
`

func TestParse_ChangedFiles(t *testing.T) {
	files := Parse(sampleDiff)

	require.Len(t, files, 2)
	assert.Equal(t, "app/service.py", files[0].Path)
	assert.Equal(t, "requirements.txt", files[1].Path)
}

func TestParse_AddedLinesScopedToFileSection(t *testing.T) {
	files := Parse(sampleDiff)

	require.Len(t, files, 2)
	assert.Equal(t, []string{"import logging"}, files[0].AddedLines)
	assert.Equal(t, []string{"requests==2.0"}, files[1].AddedLines)
}

func TestParse_DeduplicatesOldAndNewHeaders(t *testing.T) {
	paths := ChangedFiles(sampleDiff)
	assert.Equal(t, []string{"app/service.py", "requirements.txt"}, paths)
}

func TestParse_Idempotent(t *testing.T) {
	first := ChangedFiles(sampleDiff)
	second := ChangedFiles(sampleDiff)
	assert.Equal(t, first, second)
}

func TestParse_NewFileUsesDevNullSentinel(t *testing.T) {
	text := `--- /dev/null
+++ b/app/new.py
@@ -0,0 +1,1 @@
+print("hi")
`
	paths := ChangedFiles(text)
	assert.Equal(t, []string{"app/new.py"}, paths)
}

func TestParse_DeletedFile(t *testing.T) {
	text := `--- a/app/old.py
+++ /dev/null
@@ -1,1 +0,0 @@
-print("bye")
`
	paths := ChangedFiles(text)
	assert.Equal(t, []string{"app/old.py"}, paths)
}

func TestParse_MalformedInputYieldsNothing(t *testing.T) {
	assert.Empty(t, Parse("not a diff at all"))
	assert.Empty(t, Parse(""))
}

func TestParse_HeaderWithTimestampSuffix(t *testing.T) {
	text := "--- a/pkg/mod.go\t2024-01-01 00:00:00\n+++ b/pkg/mod.go\t2024-01-02 00:00:00\n@@ -1 +1 @@\n+package mod\n"
	files := Parse(text)
	require.Len(t, files, 1)
	assert.Equal(t, "pkg/mod.go", files[0].Path)
}
