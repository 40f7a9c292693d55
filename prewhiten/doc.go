// Package prewhiten drives iterative frequency extraction.
//
// Each iteration selects the strongest significant peak from the current
// residual periodogram, fits a single sinusoid to the residual, refines all
// accepted components jointly against the original series, and subtracts the
// refined model to form the next residual. The loop terminates when no peak
// clears the significance gate, when the configured iteration cutoff is
// reached, or on an unrecoverable fit failure.
//
//	cfg := config.Default()
//	c, err := prewhiten.New(time, value, nil, cfg, logger)
//	if err != nil {
//		...
//	}
//	if err := c.Run(); err != nil {
//		...
//	}
//	for _, fr := range c.Frequencies().Frequencies() {
//		fmt.Println(fr.Freq, fr.Amp, fr.Phase)
//	}
package prewhiten
