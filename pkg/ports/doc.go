/*
Package ports defines the driven ports (interfaces) of the essay editor.

These interfaces decouple the document logic from external implementations,
allowing the repository to run over any key-value backend and the refine step
to use any rewrite service.

# Key Interfaces

  - KVStore: synchronous-looking string key/value storage (browser local
    storage, files, Redis, SQLite).
  - SuggestionGateway: the external rewrite capability.
  - DistributedLocker: serializes read-modify-write cycles across processes.
*/
package ports
