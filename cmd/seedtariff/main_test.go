package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
	"dutycalc/mocks"
)

func buildWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheetCommodities))
	for _, name := range []string{sheetGeneral, sheetFTA, sheetRemedies, sheetTCO} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}

	sheets := map[string][][]interface{}{
		sheetCommodities: {
			{"Code", "Description"},
			{"72", "Iron and steel"},
			{"7208.51.00", "Flat-rolled products, width >= 600mm"},
			{"123", "odd length"},
		},
		sheetGeneral: {
			{"Code", "Rate", "Effective From", "Effective To"},
			{"72085100", "5%", "2020-01-01", ""},
			{"84", "Free", "", ""},
			{"0201", "$0.50 per kg", "01/07/2023", "30/06/2025"},
			{"7210", "see note", "", ""},
		},
		sheetFTA: {
			{"Code", "Agreement", "Country", "Preferential", "Effective", "Staging", "Effective Date", "Elimination", "Active"},
			{"84713000", "ausfta", "usa", "0%", "", "A", "2005-01-01", "", ""},
			{"72085100", "CHAFTA", "CHN", "5%", "2.5%", "B5", "2015-12-20", "2020-01-01", "no"},
			{"72085100", "", "CHN", "5%", "", "", "2015-12-20", "", ""},
		},
		sheetRemedies: {
			{"Code", "Country", "Case", "Type", "Rate", "Specific", "Unit", "Exporter", "Effective", "Expiry"},
			{"72085100", "CHN", "ADN 2023/017", "AD", "15.5%", "", "", "Baosteel", "2023-05-01", ""},
			{"72085100", "CHN", "ADN 2020/001", "dumping", "", "$12.40", "tonne", "", "2020-01-01", "2026-01-01"},
			{"72085100", "CHN", "CVD 2021/003", "safeguard", "10%", "", "", "", "2021-01-01", ""},
			{"72085100", "CHN", "CVD 2021/004", "CVD", "", "", "", "", "2021-01-01", ""},
		},
		sheetTCO: {
			{"Reference", "Code", "Description", "Effective", "Expiry"},
			{"TC 2023/04512", "8471.30.00", "Portable computers, O'Brien model", "2023-03-01", ""},
			{"", "84713000", "missing reference", "2023-03-01", ""},
		},
	}
	for sheet, rows := range sheets {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(sheet, cell, &r))
		}
	}
	return f
}

func TestParseWorkbook(t *testing.T) {
	f := buildWorkbook(t)
	data, err := parseWorkbook(f, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, data.commodities, 2)
	assert.Equal(t, domain.CommodityCode{Code: "72085100", Description: "Flat-rolled products, width >= 600mm", Level: 8}, data.commodities[1])

	require.Len(t, data.general, 3)
	assert.True(t, data.general[0].Rate.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, domain.RateUnitAdValorem, data.general[0].UnitType)
	assert.Nil(t, data.general[0].EffectiveTo)
	assert.True(t, data.general[1].Rate.IsZero())
	assert.Equal(t, domain.RateUnitSpecific, data.general[2].UnitType)
	require.NotNil(t, data.general[2].EffectiveTo)
	assert.Equal(t, "2025-06-30", data.general[2].EffectiveTo.Format(domain.DateLayout))

	require.Len(t, data.fta, 2)
	assert.Equal(t, "AUSFTA", data.fta[0].AgreementCode)
	assert.Equal(t, "USA", data.fta[0].CountryCode)
	assert.True(t, data.fta[0].IsActive)
	assert.False(t, data.fta[0].EffectiveRate.Valid)
	assert.True(t, data.fta[1].EffectiveRate.Decimal.Equal(decimal.RequireFromString("2.5")))
	assert.False(t, data.fta[1].IsActive)

	require.Len(t, data.remedies, 2)
	assert.Equal(t, domain.RemedyDumping, data.remedies[0].RemedyType)
	require.NotNil(t, data.remedies[0].ExporterName)
	assert.Equal(t, "Baosteel", *data.remedies[0].ExporterName)
	assert.Nil(t, data.remedies[1].ExporterName)
	assert.True(t, data.remedies[1].SpecificAmount.Decimal.Equal(decimal.RequireFromString("12.40")))
	require.NotNil(t, data.remedies[1].SpecificUnit)
	assert.Equal(t, "tonne", *data.remedies[1].SpecificUnit)

	require.Len(t, data.tcos, 1)
	assert.Equal(t, "84713000", data.tcos[0].Code)
}

func TestParseWorkbook_MissingSheets(t *testing.T) {
	f := excelize.NewFile()
	data, err := parseWorkbook(f, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, data.total())
}

func TestParseRateText(t *testing.T) {
	tests := []struct {
		in   string
		rate string
		unit domain.RateUnit
	}{
		{"Free", "0", domain.RateUnitAdValorem},
		{"5%", "5", domain.RateUnitAdValorem},
		{"2.5 %", "2.5", domain.RateUnitAdValorem},
		{"10", "10", domain.RateUnitAdValorem},
		{"$12.40/tonne", "12.4", domain.RateUnitSpecific},
		{"$0.50 per kg", "0.5", domain.RateUnitSpecific},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rate, unit, err := parseRateText(tt.in)
			require.NoError(t, err)
			assert.True(t, rate.Equal(decimal.RequireFromString(tt.rate)), "got %s", rate)
			assert.Equal(t, tt.unit, unit)
		})
	}

	for _, bad := range []string{"", "see note", "-5%"} {
		_, _, err := parseRateText(bad)
		assert.Error(t, err, bad)
	}
}

func TestWriteSeed(t *testing.T) {
	data, err := parseWorkbook(buildWorkbook(t), zap.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSeed(&buf, data, "tariff.xlsx"))
	sql := buf.String()

	assert.True(t, strings.HasPrefix(sql, "-- Tariff seed data generated from tariff.xlsx."))
	assert.Contains(t, sql, "BEGIN;")
	assert.True(t, strings.HasSuffix(sql, "COMMIT;\n"))
	assert.Contains(t, sql, "('72085100', 5, 'ad_valorem', '5%', '2020-01-01', NULL)")
	assert.Contains(t, sql, "('84713000', 'AUSFTA', 'USA', 0, NULL, 'A', '2005-01-01', NULL, true)")
	assert.Contains(t, sql, "'ADN 2023/017', 'dumping', 15.5, NULL, NULL, 'Baosteel'")
	assert.Contains(t, sql, "'Portable computers, O''Brien model'")
	assert.Contains(t, sql, "ON CONFLICT (reference_number) DO NOTHING;")
}

func TestWriteBatches_SplitsLargeInputs(t *testing.T) {
	var b strings.Builder
	writeBatches(&b, batchSize+1, "INSERT INTO t (v) VALUES", "", func(i int) string { return "(1)" })
	assert.Equal(t, 2, strings.Count(b.String(), "INSERT INTO t"))
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	buf, err := buildWorkbook(t).WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRun_LocalToLocal(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tariff.xlsx")
	out := filepath.Join(dir, "tariff.sql")
	require.NoError(t, os.WriteFile(in, workbookBytes(t), 0o644))

	noStorage := func(context.Context) (port.ObjectStorage, error) {
		return nil, errors.New("storage must not be used")
	}
	require.NoError(t, run(context.Background(), options{in: in, out: out}, noStorage, zap.NewNop()))

	sql, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(sql), "INSERT INTO commodity_codes")
}

func TestRun_S3ToS3(t *testing.T) {
	store := new(mocks.MockObjectStorage)
	store.On("Download", mock.Anything, "tariffs", "2024/schedule.xlsx").Return(workbookBytes(t), nil)

	var uploaded string
	store.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "seeds" && in.Key == "tariff.sql" && in.ContentType == "application/sql"
	})).Run(func(args mock.Arguments) {
		body, _ := io.ReadAll(args.Get(1).(port.UploadInput).Body)
		uploaded = string(body)
	}).Return(&port.UploadOutput{Location: "https://seeds.s3/tariff.sql"}, nil)

	calls := 0
	factory := func(context.Context) (port.ObjectStorage, error) {
		calls++
		return store, nil
	}

	err := run(context.Background(),
		options{in: "s3://tariffs/2024/schedule.xlsx", out: "s3://seeds/tariff.sql"},
		factory, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Contains(t, uploaded, "INSERT INTO fta_rates")
	store.AssertExpectations(t)
}

func TestRun_DownloadFailure(t *testing.T) {
	store := new(mocks.MockObjectStorage)
	store.On("Download", mock.Anything, "tariffs", "missing.xlsx").Return(nil, errors.New("NoSuchKey"))
	factory := func(context.Context) (port.ObjectStorage, error) { return store, nil }

	err := run(context.Background(), options{in: "s3://tariffs/missing.xlsx", out: "unused.sql"}, factory, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download workbook")
}
