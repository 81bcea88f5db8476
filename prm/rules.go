// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prm

// Business-logic helpers: one-call definitions of the commonly variated
// basin-model knobs. Each creates the parameter, checks the range and
// appends it to the variable space.

// VariateTopCrustHeatProduction adds a parameter variating the top crust
// heat production rate [μW/m³] in the given range
func VariateTopCrustHeatProduction(vs *VarSpace, base, min, max float64, pdf PDF) error {
	p, err := NewScalarPrm("TopCrustHeatProd", "BasementIoTbl", "TopCrustHeatProd", base, min, max, pdf)
	if err != nil {
		return err
	}
	return vs.AddParameter(p)
}

// VariateSourceRockTOC adds a parameter variating the initial total organic
// content [%] of the named source rock layer
func VariateSourceRockTOC(vs *VarSpace, layerName string, base, min, max float64, pdf PDF) error {
	p, err := NewScalarPrm("TOC:"+layerName, "SourceRockLithoIoTbl", "TocIni", base, min, max, pdf)
	if err != nil {
		return err
	}
	p.SelectRow("LayerName", layerName)
	return vs.AddParameter(p)
}

// VariateLayerThickness adds a parameter variating the thickness [m] of the
// named stratigraphy layer
func VariateLayerThickness(vs *VarSpace, layerName string, base, min, max float64, pdf PDF) error {
	p, err := NewScalarPrm("Thickness:"+layerName, "StratIoTbl", "Thickness", base, min, max, pdf)
	if err != nil {
		return err
	}
	p.SelectRow("LayerName", layerName)
	return vs.AddParameter(p)
}
