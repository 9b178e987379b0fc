package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

const importBatchSize = 500

var (
	importVendorID uint
	importDryRun   bool
)

// campusctl import-listings catalog.xlsx --vendor 3
var importListingsCmd = &cobra.Command{
	Use:   "import-listings <xlsx_file>",
	Short: "Bulk-create listings for a vendor from a spreadsheet",
	Long: `Reads the first sheet of an .xlsx file. The header row names the columns:
title (required), type (PRODUCT, SERVICE or FOOD), price, stock, description, available.
Rows that fail validation are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importVendorID == 0 {
			return errors.New("--vendor is required")
		}

		f, err := excelize.OpenFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to open XLSX file: %w", err)
		}
		defer f.Close()

		listings, skipped, err := readListings(f, importVendorID)
		if err != nil {
			return err
		}
		for _, s := range skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", s)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d listings parsed, %d rows skipped\n", len(listings), len(skipped))

		if importDryRun || len(listings) == 0 {
			return nil
		}

		if _, err := bootDB(); err != nil {
			return err
		}
		defer db.Close()

		if _, err := repository.NewVendorRepository(db.GetDB()).FindByID(importVendorID); err != nil {
			return fmt.Errorf("vendor %d: %w", importVendorID, err)
		}
		if err := db.GetDB().Omit("Vendor").CreateInBatches(&listings, importBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert listings: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d listings into vendor %d\n", len(listings), importVendorID)
		return nil
	},
}

func init() {
	importListingsCmd.Flags().UintVar(&importVendorID, "vendor", 0, "vendor that will own the listings")
	importListingsCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and validate without writing")
}

// readListings parses the first sheet. Skipped rows are described as "row N: reason".
func readListings(f *excelize.File, vendorID uint) ([]model.Listing, []string, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("no data found in XLSX file")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, nil, errors.New(`header row has no "title" column`)
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var listings []model.Listing
	var skipped []string
	for n, row := range rows[1:] {
		rowNum := n + 2
		listing, err := parseListingRow(vendorID, func(name string) string { return cell(row, name) })
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		listings = append(listings, *listing)
	}
	return listings, skipped, nil
}

func parseListingRow(vendorID uint, cell func(string) string) (*model.Listing, error) {
	title := cell("title")
	if title == "" {
		return nil, errors.New("missing title")
	}

	listing := &model.Listing{
		VendorID:    vendorID,
		Title:       title,
		Description: cell("description"),
		Type:        model.ListingTypeProduct,
		IsAvailable: true,
	}

	if t := cell("type"); t != "" {
		listing.Type = model.ListingType(strings.ToUpper(t))
		if !listing.Type.Valid() {
			return nil, fmt.Errorf("unknown type %q", t)
		}
	}

	if p := cell("price"); p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("invalid price %q", p)
		}
		listing.Price = &price
	}

	if s := cell("stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid stock %q", s)
		}
		listing.Stock = &stock
	}

	if a := cell("available"); a != "" {
		available, err := strconv.ParseBool(a)
		if err != nil {
			return nil, fmt.Errorf("invalid available flag %q", a)
		}
		listing.IsAvailable = available
	}

	return listing, nil
}
