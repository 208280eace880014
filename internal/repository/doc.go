// Package repository resolves where persona bundles live to a local
// directory.
//
// A bundle root is either an existing directory (LocalSource) or a git
// repository kept as a local clone (GitSource). Both implement Source:
//
//	src, err := repository.NewSource(cfg.Repository)
//	if err != nil { /* handle error */ }
//	root, err := src.Prepare(logger)
//	reg, err := persona.Open(ctx, root, cfg.Personas, logger)
//
// GitSource behavior:
//   - Clones when the target directory is missing or empty
//   - Fetches origin and hard resets to origin/<branch> when the directory is
//     a clean clone of the same remote
//   - Leaves a dirty worktree untouched and serves it as is
//   - Refuses directories holding non-git content or a different remote
//   - Tries anonymous access first, then the GitHub token stored with
//     CredentialManager (username "token", password PAT)
//
// Clone paths default to $XDG_DATA_HOME/personamcp/<repo>. Local remotes
// (absolute paths and file:// URLs) are used verbatim.
package repository
