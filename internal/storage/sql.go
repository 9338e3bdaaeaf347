package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT      NOT NULL UNIQUE,
    start_time  TIMESTAMP NOT NULL,
    device_type TEXT      NOT NULL,
    device_id   TEXT      NOT NULL,
    mode        TEXT      NOT NULL,
    correction  REAL      NOT NULL,
    config      TEXT
);

CREATE TABLE IF NOT EXISTS sweeps (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id       INTEGER   NOT NULL REFERENCES sessions (id),
    sweep_index      INTEGER   NOT NULL,
    timestamp        TIMESTAMP NOT NULL,
    center_frequency REAL      NOT NULL,
    peaks            INTEGER   NOT NULL,
    rejected         INTEGER   NOT NULL,
    confirmed        INTEGER   NOT NULL
);

CREATE TABLE IF NOT EXISTS profile (
    sweep_id    INTEGER NOT NULL REFERENCES sweeps (id),
    freq_offset REAL    NOT NULL,
    power       REAL    NOT NULL,
    threshold   REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS cells (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id       INTEGER NOT NULL REFERENCES sessions (id),
    cell_id          INTEGER NOT NULL,
    center_frequency REAL    NOT NULL,
    freq_offset      REAL    NOT NULL,
    peak_power       REAL    NOT NULL,
    cp               TEXT    NOT NULL,
    n_rb_dl          INTEGER NOT NULL,
    phich_duration   TEXT    NOT NULL,
    phich_resource   TEXT    NOT NULL,
    ports            INTEGER NOT NULL,
    sfn              INTEGER NOT NULL,
    correction       REAL    NOT NULL
);`

	// created on close, after the bulk of the inserts
	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_sweeps_session ON sweeps (session_id, sweep_index);
CREATE INDEX IF NOT EXISTS idx_profile_sweep ON profile (sweep_id, freq_offset);
CREATE INDEX IF NOT EXISTS idx_cells_session ON cells (session_id);`

	insertSessionSQL = `
INSERT INTO sessions (
                      run_id,
                      start_time,
                      device_type,
                      device_id,
                      mode,
                      correction,
                      config)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectSessionSQL = `
SELECT 
    id, 
    run_id,
    start_time, 
    device_type, 
    device_id, 
    mode,
    correction,
    config 
FROM sessions 
WHERE 
    id = ?`

	selectSessionsSQL = `
SELECT 
    id, 
    run_id,
    start_time, 
    device_type, 
    device_id, 
    mode,
    correction,
    config 
FROM sessions
ORDER BY start_time, id`

	insertSweepSQL = `
INSERT INTO sweeps (session_id,
                    sweep_index,
                    timestamp,
                    center_frequency,
                    peaks,
                    rejected,
                    confirmed)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertProfileSQL = `
INSERT INTO profile (sweep_id,
                     freq_offset,
                     power,
                     threshold)
VALUES `

	insertCellSQL = `
INSERT INTO cells (session_id,
                   cell_id,
                   center_frequency,
                   freq_offset,
                   peak_power,
                   cp,
                   n_rb_dl,
                   phich_duration,
                   phich_resource,
                   ports,
                   sfn,
                   correction)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectCellsSQL = `
SELECT 
    cell_id,
    center_frequency,
    freq_offset,
    peak_power,
    cp,
    n_rb_dl,
    phich_duration,
    phich_resource,
    ports,
    sfn,
    correction
FROM cells
WHERE 
    session_id = ?
ORDER BY id`

	selectProfileSQL = `
SELECT 
    s.sweep_index,
    s.timestamp,
    s.center_frequency,
    s.peaks,
    s.rejected,
    s.confirmed,
    p.freq_offset,
    p.power,
    p.threshold
FROM sweeps s
LEFT JOIN profile p ON p.sweep_id = s.id
WHERE 
    s.session_id = ?
    AND s.center_frequency BETWEEN ? AND ?
ORDER BY s.sweep_index, p.freq_offset`
)
