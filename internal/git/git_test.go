package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/fruits/fruits.go b/fruits/fruits.go
index 3b18e51..a9c4d2f 100644
--- a/fruits/fruits.go
+++ b/fruits/fruits.go
@@ -10,0 +11,2 @@ type Fruit struct {
+	Sugar float64
+	Acid  float64
@@ -30 +32 @@ func cost(f Fruit, price float64)
-old
+new
diff --git a/market/old.go b/market/old.go
deleted file mode 100644
index 1111111..0000000
--- a/market/old.go
+++ /dev/null
@@ -1,3 +0,0 @@
-package market
-
-type Old struct{}
`

func TestParseDiff(t *testing.T) {
	changes, err := parseDiff([]byte(sampleDiff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "fruits/fruits.go", changes[0].Path)
	assert.Equal(t, []int{11, 12, 32}, changes[0].ChangedLines)

	assert.Equal(t, "market/old.go", changes[1].Path)
	assert.Empty(t, changes[1].ChangedLines)
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
