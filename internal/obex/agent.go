package obex

import (
	"fmt"
	"path/filepath"

	"github.com/godbus/dbus/v5"
)

// TransferReader resolves an incoming transfer's object path to its file
// name and size.
type TransferReader interface {
	TransferProperties(path dbus.ObjectPath) (name string, size uint64, err error)
}

// Prompter asks the user whether to accept an incoming file.
type Prompter interface {
	Confirm(text string) bool
}

// Agent implements the org.bluez.obex.Agent1 interface for incoming Object
// Push transfers.
//
// As with the pairing agent, every exported method is a bus handler.
type Agent struct {
	transfers   TransferReader
	prompter    Prompter
	autoAccept  bool
	downloadDir string
	logger      Logger
}

// NewAgent creates a transfer authorization agent. With autoAccept set the
// prompter is never consulted. A nil logger disables logging.
func NewAgent(transfers TransferReader, prompter Prompter, autoAccept bool, downloadDir string, logger Logger) *Agent {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Agent{
		transfers:   transfers,
		prompter:    prompter,
		autoAccept:  autoAccept,
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// Export publishes the agent's handlers at path.
func Export(conn *dbus.Conn, a *Agent, path dbus.ObjectPath) error {
	if err := conn.Export(a, path, AgentInterface); err != nil {
		return fmt.Errorf("exporting obex agent: %w", err)
	}
	return nil
}

// AuthorizePush decides whether an incoming transfer may proceed and, if
// so, returns the full path the file should be written to.
func (a *Agent) AuthorizePush(transfer dbus.ObjectPath) (string, *dbus.Error) {
	name, size, err := a.transfers.TransferProperties(transfer)
	if err != nil {
		a.logger.Error("cannot inspect incoming transfer", "transfer", transfer, "error", err)
		return "", rejected(ErrRejectedByPolicy)
	}
	a.logger.Info("incoming file", "name", name, "size", size, "transfer", transfer)

	// The remote side picks the name; Base strips any path it smuggled in.
	target := filepath.Join(a.downloadDir, filepath.Base(name))

	if a.autoAccept {
		return target, nil
	}

	if !a.prompter.Confirm(fmt.Sprintf("Accept file %s (%d bytes)?", name, size)) {
		a.logger.Info("transfer rejected", "name", name)
		return "", rejected(ErrRejectedByPolicy)
	}
	return target, nil
}

// Cancel is called by obexd when the remote side aborts a transfer.
func (a *Agent) Cancel(transfer dbus.ObjectPath) *dbus.Error {
	a.logger.Info("transfer cancelled by remote", "transfer", transfer)
	return nil
}

// Release is called by obexd when the agent is unregistered.
func (a *Agent) Release() *dbus.Error {
	a.logger.Info("obex agent released")
	return nil
}
