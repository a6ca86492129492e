package game

var ambientChatter = []string{
	"Packet stream analysis: OK",
	"Data integrity check: Passed",
	"Routing table update: Complete",
	"Firewall logs: Nominal",
	"System heartbeat: Stable",
	"Network traffic: Low variance",
	"Encryption protocols: Active",
	"Sub-routine checksum: Valid",
	"Proxy connection: Established",
}

var ambientHack = []string{
	"Scanning for open ports...",
	"Analyzing packet headers...",
	"Executing brute-force on root password...",
	"Cerberus AI ping detected... masking signature.",
	"Memory buffer overflow attempt in progress...",
	"Searching for known exploits in kernel version...",
	"Decrypting data stream fragments...",
	"Spoofing MAC address...",
	"Pinging subnet for active devices...",
}

// ambient rolls the per-tick flavour lines.
func (e *Engine) ambient() {
	if e.rng.Float64() < e.tuning.AmbientChatterChance {
		e.console("AMBIENT", ambientChatter[e.rng.Intn(len(ambientChatter))], SeverityAmbient)
	}
	if e.rng.Float64() < e.tuning.AmbientHackChance {
		e.console("HACK", ambientHack[e.rng.Intn(len(ambientHack))], SeveritySuccess)
	}
}

func (e *Engine) console(sender, text string, sev Severity) {
	e.emit(Event{Kind: EventConsole, Sender: sender, Text: text, Severity: sev})
}
