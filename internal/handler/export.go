package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MuthonduG/reports-api/internal/models"
	"github.com/MuthonduG/reports-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler produces staff-only CSV/XLSX dumps of all reports.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

var exportHeader = []string{"ID", "AnonymousID", "Title", "Type", "Description", "Status", "UploadedAt"}

func (h *ExportHandler) loadRows() ([][]string, error) {
	var reports []models.Report
	if err := h.DB.Preload("User").Order("uploaded_at").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}

	rows := make([][]string, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		rows = append(rows, []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.User.AnonymousID, // never the email; exports stay pseudonymous
			r.Title,
			r.Type,
			r.Description,
			strconv.FormatBool(r.Status),
			r.UploadedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

// ExportCSV streams all reports as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	rows, err := h.loadRows()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to export reports.")
		return
	}

	filename := fmt.Sprintf("reports-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
}

// ExportXLSX streams all reports as an Excel workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	rows, err := h.loadRows()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to export reports.")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reports"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
	}
	for i, row := range rows {
		for col, val := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, val)
		}
	}

	filename := fmt.Sprintf("reports-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to write workbook.")
	}
}
