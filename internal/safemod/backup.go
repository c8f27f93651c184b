package safemod

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
)

// BackupRecord is persisted beside the backup copy; it is the only state
// rollback needs to restore the original document.
type BackupRecord struct {
	BackupID     string    `json:"backup_id"`
	OriginalPath string    `json:"original_path"`
	BackupPath   string    `json:"backup_path"`
	CreatedAt    time.Time `json:"created_at"`
	PlanDigest   string    `json:"plan_digest"`
}

// CreateBackup copies sourcePath to a timestamped sibling and writes the
// BackupRecord JSON sidecar. Any failure here is a BackupFailure and the
// caller must not proceed to mutation.
func CreateBackup(sourcePath, backupID, planDigest string, now time.Time) (*BackupRecord, error) {
	dir := filepath.Dir(sourcePath)
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	backupPath := filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", stem, now.UTC().Format("20060102T150405Z"), ext))

	if err := copyFile(sourcePath, backupPath); err != nil {
		return nil, bemerrors.BackupFailure(fmt.Sprintf("copying %s to %s failed", sourcePath, backupPath), err)
	}

	record := &BackupRecord{
		BackupID:     backupID,
		OriginalPath: sourcePath,
		BackupPath:   backupPath,
		CreatedAt:    now.UTC(),
		PlanDigest:   planDigest,
	}

	sidecarPath := backupPath + ".json"
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, bemerrors.BackupFailure("encoding backup record failed", err)
	}
	if err := os.WriteFile(sidecarPath, data, 0o644); err != nil {
		return nil, bemerrors.BackupFailure(fmt.Sprintf("writing backup record to %s failed", sidecarPath), err)
	}

	return record, nil
}

// LoadBackupRecord reads the JSON sidecar written by CreateBackup.
func LoadBackupRecord(sidecarPath string) (*BackupRecord, error) {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return nil, bemerrors.IoFailure(fmt.Sprintf("reading backup record %s failed", sidecarPath), err)
	}
	var record BackupRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, bemerrors.IoFailure(fmt.Sprintf("decoding backup record %s failed", sidecarPath), err)
	}
	return &record, nil
}

// RestoreBackup copies the backup file back over destPath, used by
// rollback. Writes to a temporary sibling first and renames into place
// so a crash mid-restore cannot leave destPath half-written.
func RestoreBackup(record *BackupRecord, destPath string) error {
	tmp := destPath + ".restoring"
	if err := copyFile(record.BackupPath, tmp); err != nil {
		return bemerrors.IoFailure("copying backup into place failed", err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		return bemerrors.IoFailure("renaming restored file into place failed", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
