package sqlinline

const QInsertPrediction = `--sql 3f2c1d84-9a6b-4e07-b2d1-5c8e94a7f310
insert into predictions (id, user_id, model, status, input_json, credit_cost, callback_token, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::text, 'pending', $3::jsonb, $4::int, $5::text, now(), now())
returning id;
`

// Guarded transition: provider_job_id is assigned exactly once, while the row
// is still pending. A second attempt matches no row.
const QMarkPredictionProcessing = `--sql b7e45f02-3d18-4c6a-9e27-08d1c5f6aa94
update predictions
set provider_job_id = $2::text,
    status = 'processing',
    updated_at = now()
where id = $1::uuid
  and status = 'pending'
  and provider_job_id is null
returning id;
`

const QSelectPredictionForWebhook = `--sql 91d6a3c7-52e0-4fb8-a1d4-67b92e0c83d5
select id, user_id, status, callback_token, credit_cost
from predictions
where id = $1::uuid;
`

const QCompletePrediction = `--sql e08b72f9-1c4d-4a36-b5e8-2f90d3a61c78
update predictions
set status = $2::text,
    result_url = coalesce($3::text, result_url),
    error_message = coalesce($4::text, error_message),
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'processing')
returning id;
`

const QFailPrediction = `--sql 4a91c5e3-8f27-40db-92c6-d15e7b38fa02
update predictions
set status = 'failed',
    error_message = $2::text,
    updated_at = now()
where id = $1::uuid
returning id;
`

const QSelectPredictionForUser = `--sql c3d80f16-6b49-4e92-8a05-f7218d94be63
select id, user_id, model, status, provider_job_id, result_url, error_message, input_json, credit_cost, created_at, updated_at
from predictions
where id = $1::uuid
  and user_id = $2::uuid;
`
