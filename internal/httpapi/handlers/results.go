package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListResultFiles is GET /results/files: every CSV currently in the
// outputs directory.
func (d *Deps) ListResultFiles(ctx *gin.Context) {
	entries, err := os.ReadDir(d.OutputsDir)
	if err != nil {
		if os.IsNotExist(err) {
			ctx.JSON(http.StatusOK, gin.H{"files": []string{}})
			return
		}
		RespondInternal(ctx, "failed to list results files")
		return
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		files = append(files, e.Name())
	}
	ctx.JSON(http.StatusOK, gin.H{"files": files})
}

// DownloadResultFile is GET /results/download/{name}. name must be a bare
// file name with no path separators — anything else is rejected before
// ever touching the filesystem.
func (d *Deps) DownloadResultFile(ctx *gin.Context) {
	name := ctx.Param("name")
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		RespondBadRequest(ctx, "invalid file name")
		return
	}

	path := filepath.Join(d.OutputsDir, name)
	if _, err := os.Stat(path); err != nil {
		RespondNotFound(ctx, "file not found")
		return
	}
	ctx.FileAttachment(path, name)
}
