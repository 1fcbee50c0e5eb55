package symbol

var defaultKnown = func() map[string]struct{} {
	codes := []string{
		"PETR4", "PETR3", "VALE3", "ITUB4", "BBDC4", "MGLU3", "WEGE3",
		"ABEV3", "AZUL4", "B3SA3", "BBAS3", "BPAC11", "BRDT3", "BRKM5",
		"CCRO3", "CIEL3", "CMIG4", "COGN3", "CPFE3", "CRFB3", "CSAN3",
		"CSNA3", "CVCB3", "CYRE3", "ELET3", "ELET6", "EMBR3", "ENBR3",
		"EQTL3", "FLRY3", "GGBR4", "GNDI3", "GOAU4", "GOLL4", "HAPV3",
		"HYPE3", "IGTA3", "IRBR3", "JBSS3", "JHSF3", "KLBN11", "LAME4",
		"LREN3", "LWSA3", "MDIA3", "MEAL3", "MRFG3", "MRVE3", "MULT3",
		"NTCO3", "PCAR3", "PRIO3", "QUAL3", "RADL3", "RAIL3", "RDOR3",
		"RENT3", "SANB11", "SBSP3", "SULA11", "SUZB3", "TAEE11", "TOTS3",
		"UGPA3", "USIM5", "VIVT3", "VVAR3", "YDUQ3",
	}
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}()
