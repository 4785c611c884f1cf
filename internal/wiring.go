package internal

import (
	"fmt"

	"label-intake-api/internal/config"
	"label-intake-api/internal/glpi"
	"label-intake-api/internal/intake"
	"label-intake-api/internal/ocr"
	"label-intake-api/internal/qrcode"
	"label-intake-api/pkg/extractor"
)

// NewService builds the intake service from configuration: the GLPI
// client, the tesseract runner, the code decoder and the label rule table.
func NewService(cfg *config.Config, recorder intake.Recorder) (*intake.Service, error) {
	client, err := glpi.NewClient(glpi.Config{
		BaseURL:        cfg.GLPIURL,
		AppToken:       cfg.GLPIAppToken,
		UserToken:      cfg.GLPIUserToken,
		Timeout:        cfg.GLPITimeout,
		SecondaryField: cfg.GLPISecondaryField,
		ModelField:     cfg.GLPIModelField,
	})
	if err != nil {
		return nil, err
	}

	engine, err := ocr.NewTesseract(cfg.TesseractBin, cfg.TesseractLang, ocr.WithTimeout(cfg.OCRTimeout))
	if err != nil {
		return nil, err
	}

	rules, err := extractor.LoadRuleSet(cfg.LabelRulesPath)
	if err != nil {
		return nil, fmt.Errorf("label rules: %w", err)
	}
	fields, err := extractor.New(rules)
	if err != nil {
		return nil, fmt.Errorf("label rules: %w", err)
	}

	return intake.NewService(
		intake.GLPIOpener(client),
		engine,
		qrcode.NewDecoder(nil),
		fields,
		intake.WithStrictMatch(cfg.StrictMatch),
		intake.WithDefaultItemType(cfg.DefaultItemType),
		intake.WithRecorder(recorder),
	), nil
}
