package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/plan-systems/klog"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
	"github.com/cuckoo-systems/gocuckoo/libcuckoo"
	"github.com/cuckoo-systems/gocuckoo/libcuckoo/ledger"
	"github.com/cuckoo-systems/gocuckoo/libcuckoo/plugin"
)

// Hardwired example header, solved when no -x arg is given.
const kExampleHeader = "A6C16443FC82250B49C7FAA3876E7AB89BA687918CB00C4C10D6625E3A2E7BCC"

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	hexHeader := flag.String("x", kExampleHeader, "hex-encoded header to solve")
	easipct := flag.Uint("e", 50, "percentage of the edge space to scan (0..100)")
	edgeBits := flag.Uint("bits", 19, "graph size exponent (EDGEBITS)")
	cycleLen := flag.Int("cycle", gocuckoo.ProofSize, "target cycle length")
	dbPath := flag.String("db", "", "proof ledger path (empty for in-memory)")

	flag.Parse()

	if *easipct > 100 {
		klog.Fatalf("easiness %d%% outside 0..100", *easipct)
	}
	header, err := hex.DecodeString(strings.TrimSpace(*hexHeader))
	if err != nil {
		klog.Fatalf("bad hex header: %v", err)
	}

	ldg, err := ledger.OpenLedger(ledger.Opts{
		DbPathName: *dbPath,
	})
	if err != nil {
		klog.Fatalf("open ledger: %v", err)
	}
	defer ldg.Close()

	ctx := gocuckoo.NewMinerContext()
	d, _ := plugin.NewEngine(plugin.MinerOpts{
		EdgeBits:    uint32(*edgeBits),
		EasinessPct: uint32(*easipct),
		ProofSize:   *cycleLen,
		Ledger:      ldg,
	})
	if err := d.Start(); err != nil {
		klog.Fatalf("start: %v", err)
	}
	ctx.AttachMiner(d)

	sm := libcuckoo.NewSipMap(header, uint32(*edgeBits))
	k0, k1 := sm.Keys()
	klog.Infof("looking for %d-cycle on cuckoo%d(%q) with %d%% edges", *cycleLen, *edgeBits+1, *hexHeader, *easipct)
	klog.Infof("k0 %x k1 %x", k0, k1)

	var jobNonce [8]byte
	if status := d.Submit(1, header, jobNonce); status != gocuckoo.SubmitOK {
		klog.Fatalf("submit: %v", status)
	}

	for {
		out, found := d.Retrieve()
		if !found {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if out.NumResults == 0 {
			klog.Infof("no %d-cycle found", *cycleLen)
		} else {
			line := strings.Builder{}
			line.WriteString("Solution")
			for _, nonce := range out.ResultNonces[:out.NumResults] {
				fmt.Fprintf(&line, " %x", nonce)
			}
			klog.Info(line.String())
			klog.Infof("%d proofs in ledger", ldg.NumProofs())
		}
		break
	}

	ctx.Close()
	<-ctx.Done()
	klog.Flush()
}
