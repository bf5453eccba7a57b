package goclip

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"os/exec"
	"syscall"
)

// writeContext is handed to a re-exec'd background owner process across an
// inherited pipe on fd 3, gob-encoded.
type writeContext struct {
	Format  Format
	Payload []byte
	Board   Board
}

// Sentinel arguments recognized by the init() below. A real fork(2) would
// let the child keep running from the call site with the parent's memory
// and open file descriptors already in place; a multithreaded Go process
// cannot safely do that (the runtime, GC, and any in-flight cgo calls
// assume normal post-fork child code never runs before exec). The
// idiomatic substitute is to re-invoke the running binary as a detached
// child and recognize it via a sentinel argument early enough that it
// never reaches the host program's own main — a package init() runs
// before any main(), including the host's, so this works regardless of
// what the importing application does with its arguments.
const (
	x11ServerFlag     = "--goclip-x11-owner"
	waylandServerFlag = "--goclip-wayland-owner"
)

func init() {
	for _, a := range os.Args[1:] {
		switch a {
		case x11ServerFlag:
			runX11ServerChild()
			os.Exit(0)
		case waylandServerFlag:
			runWaylandServerChild()
			os.Exit(0)
		}
	}
}

// spawnOwnerProcess re-execs the current binary with flag as its only
// argument, passing wc across an inherited pipe on fd 3. The caller is expected to
// drop its own claim on the selection immediately after this returns
// successfully: the spawned process is now the one answering for it, and
// remains so until another owner claims the selection or the process is
// killed.
func spawnOwnerProcess(flag string, wc writeContext) error {
	r, w, err := os.Pipe()
	if err != nil {
		return wrapErr(WriteFailed, err)
	}
	defer r.Close()

	exe, err := os.Executable()
	if err != nil {
		w.Close()
		return wrapErr(WriteFailed, err)
	}

	cmd := exec.Command(exe, flag)
	cmd.Dir = "/"
	cmd.Env = os.Environ()
	cmd.ExtraFiles = []*os.File{r}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0); err == nil {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		defer devnull.Close()
	}

	if err := cmd.Start(); err != nil {
		w.Close()
		return wrapErr(WriteFailed, err)
	}

	enc := gob.NewEncoder(w)
	encErr := enc.Encode(wc)
	w.Close()
	if encErr != nil {
		return wrapErr(WriteFailed, encErr)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("goclip: [linux] background owner process exited: %v", err)
		}
	}()

	return nil
}

// receiveOwnerPayload decodes the writeContext passed by spawnOwnerProcess
// on the inherited fd 3.
func receiveOwnerPayload() (writeContext, error) {
	var wc writeContext
	f := os.NewFile(3, "goclip-owner-payload")
	if f == nil {
		return wc, fmt.Errorf("goclip: [linux] no inherited payload pipe on fd 3")
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&wc); err != nil {
		return wc, err
	}
	return wc, nil
}
