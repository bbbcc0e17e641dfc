package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mzlab/mzwake/migrate"
	"github.com/mzlab/mzwake/store"
	"github.com/mzlab/mzwake/utils"
)

// DataController exposes bulk transfer of the local backend: export/import,
// the latest-only backup snapshot, QR sharing, and one-way cloud migration.
// Every endpoint requires the local backend to be the active store.
type DataController struct {
	exporter store.Exporter // nil when the cloud backend is active
	cloud    store.Store    // nil when no migration target is configured
}

// NewDataController creates a new controller instance.
func NewDataController(exporter store.Exporter, cloud store.Store) *DataController {
	return &DataController{exporter: exporter, cloud: cloud}
}

func (d *DataController) requireLocal(ctx *gin.Context) bool {
	if d.exporter == nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "data transfer requires the local backend")
		return false
	}
	return true
}

// Export returns the full snapshot of the seven collections.
func (d *DataController) Export(ctx *gin.Context) {
	if !d.requireLocal(ctx) {
		return
	}
	snap, err := d.exporter.Export(ctx)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// Import overwrites the collections present in the payload, leaving absent
// keys untouched. Ids are stored as given, never regenerated.
func (d *DataController) Import(ctx *gin.Context) {
	if !d.requireLocal(ctx) {
		return
	}
	var snap store.Snapshot
	if err := ctx.ShouldBindJSON(&snap); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid snapshot payload")
		return
	}
	if err := d.exporter.Import(ctx, &snap); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, nil)
}

// SaveBackup snapshots everything under the single backup key.
func (d *DataController) SaveBackup(ctx *gin.Context) {
	if !d.requireLocal(ctx) {
		return
	}
	b, err := d.exporter.SaveBackup(ctx)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"created_at": b.CreatedAt})
}

// LatestBackup returns the stored backup wrapper, or null when none exists.
func (d *DataController) LatestBackup(ctx *gin.Context) {
	if !d.requireLocal(ctx) {
		return
	}
	b, err := d.exporter.LatestBackup(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Success(ctx, gin.H{"backup": nil})
			return
		}
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"backup": b})
}

// ShareQR renders the snapshot as a QR code PNG. Oversized snapshots are
// rejected; splitting is the caller's job.
func (d *DataController) ShareQR(ctx *gin.Context) {
	if !d.requireLocal(ctx) {
		return
	}
	snap, err := d.exporter.Export(ctx)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	size, _ := strconv.Atoi(ctx.DefaultQuery("size", "512"))
	png, err := migrate.ShareQR(snap, size)
	if err != nil {
		if errors.Is(err, migrate.ErrPayloadTooLarge) {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, err.Error())
			return
		}
		writeDomainError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}

// MigrateCloud copies missions, steps, groups and memberships into the
// configured cloud backend with fresh ids. Sessions are excluded so past
// attempts are never duplicated.
func (d *DataController) MigrateCloud(ctx *gin.Context) {
	if !d.requireLocal(ctx) {
		return
	}
	if d.cloud == nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50310, "cloud backend not configured")
		return
	}
	report, err := migrate.LocalToCloud(ctx, d.exporter, d.cloud, utils.Sugar)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"report": report})
}
