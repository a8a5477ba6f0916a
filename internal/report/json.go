// Package report renders an emissions report as a structured JSON document
// or as human-readable text. Rendering is presentation only: no value is
// recomputed or altered here.
package report

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/greenhpc/jobcarbon/internal/emissions"
)

// Quantity pairs a numeric value, formatted to exactly three decimal
// places, with its units.
type Quantity struct {
	Value string `json:"value"`
	Units string `json:"units"`
}

// Float returns the quantity's numeric value.
func (q Quantity) Float() (float64, error) {
	return strconv.ParseFloat(q.Value, 64)
}

func quantity(v float64, units string) Quantity {
	return Quantity{Value: strconv.FormatFloat(v, 'f', 3, 64), Units: units}
}

// Document is the stable JSON shape of an emissions report.
type Document struct {
	Job struct {
		ID      string   `json:"id"`
		Account string   `json:"account"`
		Start   string   `json:"start"`
		Nodes   int      `json:"nodes"`
		Elapsed Quantity `json:"elapsed"`
	} `json:"job"`

	Usage struct {
		NodeHours Quantity `json:"node_hours"`
	} `json:"usage"`

	Energy struct {
		Compute    Quantity `json:"compute"`
		Other      Quantity `json:"other"`
		Overhead   Quantity `json:"overhead"`
		Total      Quantity `json:"total"`
		Provenance string   `json:"provenance"`
	} `json:"energy"`

	Emissions struct {
		CarbonIntensity   Quantity `json:"carbon_intensity"`
		Scope2            Quantity `json:"scope2"`
		Scope3            Quantity `json:"scope3"`
		Total             Quantity `json:"total"`
		GridScope2        Quantity `json:"grid_scope2"`
		GridTotal         Quantity `json:"grid_total"`
		Scope2Percent     Quantity `json:"scope2_percent"`
		Scope3Percent     Quantity `json:"scope3_percent"`
		RenewableContract bool     `json:"renewable_contract"`
	} `json:"emissions"`
}

// NewDocument maps a report onto the JSON document shape.
func NewDocument(rep emissions.Report) Document {
	var doc Document

	doc.Job.ID = rep.JobID
	doc.Job.Account = rep.Account
	doc.Job.Start = rep.Start.Format("2006-01-02T15:04:05")
	doc.Job.Nodes = rep.Nodes
	doc.Job.Elapsed = quantity(float64(rep.ElapsedSeconds), "s")

	doc.Usage.NodeHours = quantity(rep.NodeHours, "node-hours")

	doc.Energy.Compute = quantity(rep.Energy.ComputeKWh, "kWh")
	doc.Energy.Other = quantity(rep.Energy.OtherKWh, "kWh")
	doc.Energy.Overhead = quantity(rep.Energy.OverheadKWh, "kWh")
	doc.Energy.Total = quantity(rep.Energy.TotalKWh, "kWh")
	doc.Energy.Provenance = rep.Energy.Provenance.String()

	doc.Emissions.CarbonIntensity = quantity(rep.CarbonIntensity, "gCO2e/kWh")
	doc.Emissions.Scope2 = quantity(rep.Scope2KgCO2e, "kgCO2e")
	doc.Emissions.Scope3 = quantity(rep.Scope3KgCO2e, "kgCO2e")
	doc.Emissions.Total = quantity(rep.TotalKgCO2e, "kgCO2e")
	doc.Emissions.GridScope2 = quantity(rep.GridScope2KgCO2e, "kgCO2e")
	doc.Emissions.GridTotal = quantity(rep.GridTotalKgCO2e, "kgCO2e")
	doc.Emissions.Scope2Percent = quantity(rep.Scope2Percent, "%")
	doc.Emissions.Scope3Percent = quantity(rep.Scope3Percent, "%")
	doc.Emissions.RenewableContract = rep.RenewableContract

	return doc
}

// RenderJSON renders rep as an indented JSON document.
func RenderJSON(rep emissions.Report) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(rep), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

// ParseJSON decodes a rendered document. Used by consumers (and the
// round-trip tests) to read figures back at the rendered precision.
func ParseJSON(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding report: %w", err)
	}
	return doc, nil
}
