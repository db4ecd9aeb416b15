// Package lockfile reads and writes JPM.lock, the record of which revision
// each coordinate of an install set resolved to.
//
// A lockfile is JSON with sorted keys:
//
//	{
//	  "version": 1,
//	  "setId": "4197933a46c2578cb8fd06acdd8bb910aa26b30c",
//	  "entries": {
//	    "org.foo:bar@1.2": {
//	      "revision": "0202020202020202020202020202020202020202",
//	      "phase": "MASTER",
//	      "bsn": "org.foo.bar"
//	    }
//	  }
//	}
//
// setId is the revisions checksum of the entry revisions, so a lockfile
// whose entries were edited by hand fails to parse.
//
// # Usage
//
//	set, err := resolver.Install(ctx, m)
//	lf, err := lockfile.FromInstallSet(set)
//	err = lf.WriteFile(lockfile.DefaultPath(dir))
//
// Versions are matched exactly: a reader only accepts the version it writes.
package lockfile
